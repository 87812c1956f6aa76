package ethereum

import (
	"context"
	"errors"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-retryablehttp"
	"net/http"
	"time"
)

// NewHttpClient returns a standard http.Client backed by retryablehttp. With
// retries at 0 a failed call surfaces on the first attempt.
func NewHttpClient(timeout time.Duration, retries int) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = retries
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := retryClient.StandardClient()
	client.Timeout = timeout

	return client
}

func Dial(ctx context.Context, url string, httpClient *http.Client) (*ethclient.Client, error) {
	if len(url) == 0 {
		return nil, errors.New("bad call missing argument host")
	}

	rpcClient, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	return ethclient.NewClient(rpcClient), nil
}
