package httpx

import (
	"net"
	"net/http"
	"time"
)

var transport = &http.Transport{
	DialContext: (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:        100,
	MaxConnsPerHost:     100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

var defaultClient = &http.Client{
	Timeout:   10 * time.Second,
	Transport: transport,
}

// PDF conversion regularly exceeds the default timeout on a cold engine.
var longClient = &http.Client{
	Timeout:   60 * time.Second,
	Transport: transport,
}

func Client() *http.Client { return defaultClient }

func LongClient() *http.Client { return longClient }
