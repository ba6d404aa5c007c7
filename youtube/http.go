package youtube

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const maxConnsPerHost = 4

func makeAPIClient(timeout time.Duration) *resty.Client {
	return resty.
		NewWithClient(&http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxConnsPerHost:     maxConnsPerHost,
				MaxIdleConnsPerHost: maxConnsPerHost,
			},
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}
