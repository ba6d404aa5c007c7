package youtube

import (
	"context"
	"strings"

	"github.com/gravitational/trace"
)

// Rating is the rating applied to a video.
type Rating string

const (
	// RatingLike likes the video.
	RatingLike Rating = "like"
	// RatingDislike dislikes the video.
	RatingDislike Rating = "dislike"
	// RatingNone removes any rating.
	RatingNone Rating = "none"
)

// ParseRating parses a rating value, accepting the upvote/downvote/clear aliases.
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "like", "upvote":
		return RatingLike, nil
	case "dislike", "downvote":
		return RatingDislike, nil
	case "none", "clear", "clear_vote":
		return RatingNone, nil
	}
	return "", trace.BadParameter("unknown rating %q, expected one of like, dislike, none", s)
}

// Check validates the rating.
func (r Rating) Check() error {
	switch r {
	case RatingLike, RatingDislike, RatingNone:
		return nil
	}
	return trace.BadParameter("unknown rating %q", string(r))
}

func (r Rating) String() string {
	return string(r)
}

// RatingRequest is a single request to rate a video.
type RatingRequest struct {
	// VideoURL is any URL carrying the video id after v= or a path separator.
	VideoURL string
	Rating   Rating
}

// RateResponse is the rate endpoint's HTTP response, passed through as is.
type RateResponse struct {
	StatusCode int
	Status     string
	Body       []byte
}

// IsSuccess reports whether the provider accepted the rating.
func (r *RateResponse) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Rater is the handle the host application uses to rate videos.
type Rater interface {
	Rate(ctx context.Context, videoURL string, rating Rating) (*RateResponse, error)
}

const (
	grantTypeAuthorizationCode = "authorization_code"
	grantTypeRefreshToken      = "refresh_token"
)

// tokenRequest is the token endpoint request body.
type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	GrantType    string `json:"grant_type"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
}

// tokenResponse is the token endpoint response body. Fields not listed are ignored.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

// rateRequest is the rate endpoint request body.
type rateRequest struct {
	ID     string `json:"id"`
	Rating Rating `json:"rating"`
}
