package di

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ZilDuck/opensea-trader/internal/config"
)

func testConfig(abiPath string) *config.Config {
	return &config.Config{
		AccessKey:      "secret",
		Erc721AbiPath:  abiPath,
		DerivationPath: "m/44'/60'/0'/0/0",
		Rpc:            config.RpcConfig{Timeout: time.Second, Retries: 1},
		OpenSea:        config.OpenSeaConfig{RateLimit: 4, Timeout: time.Second},
		Seaport:        config.SeaportConfig{Address: "0x0000000000000068F116a894984e2DB1123eB395", ListingDuration: time.Hour},
		SellRetry:      config.RetryConfig{Attempts: 2, Delay: time.Millisecond},
		Networks:       config.Networks{},
	}
}

func TestNewContainer_BuildsServer(t *testing.T) {
	container, err := NewContainer(testConfig("../../../abi/erc721.json"))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer container.Delete()

	if _, err := container.GetTradeService(); err != nil {
		t.Fatalf("GetTradeService: %v", err)
	}
	if _, err := container.GetServer(); err != nil {
		t.Fatalf("GetServer: %v", err)
	}
}

func TestNewContainer_MissingAbi(t *testing.T) {
	container, err := NewContainer(testConfig("/does/not/exist.json"))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer container.Delete()

	if _, err := container.GetServer(); err == nil {
		t.Fatal("expected an error when the ABI file is missing")
	}
}

// flakyServer fails the first call with 503 and succeeds afterwards.
func flakyServer(calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
}

func TestNewContainer_HttpClientsDoNotRetry(t *testing.T) {
	for _, key := range []string{"RPC_RETRIES", "OPENSEA_RETRIES"} {
		t.Setenv(key, "")
	}

	container, err := NewContainer(config.Get())
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer container.Delete()

	t.Run("opensea", func(t *testing.T) {
		var calls int32
		srv := flakyServer(&calls)
		defer srv.Close()

		req, err := retryablehttp.NewRequest(http.MethodGet, srv.URL, nil)
		if err != nil {
			t.Fatalf("request: %v", err)
		}

		resp, err := container.ctn.Get("opensea.http").(*retryablehttp.Client).Do(req)
		if err != nil {
			t.Fatalf("expected the 503 response, got %v", err)
		}
		resp.Body.Close()

		if n := atomic.LoadInt32(&calls); resp.StatusCode != http.StatusServiceUnavailable || n != 1 {
			t.Errorf("expected a single call answered with 503, got %d calls and status %d", n, resp.StatusCode)
		}
	})

	t.Run("rpc", func(t *testing.T) {
		var calls int32
		srv := flakyServer(&calls)
		defer srv.Close()

		resp, err := container.ctn.Get("rpc.http").(*http.Client).Get(srv.URL)
		if err != nil {
			t.Fatalf("expected the 503 response, got %v", err)
		}
		resp.Body.Close()

		if n := atomic.LoadInt32(&calls); resp.StatusCode != http.StatusServiceUnavailable || n != 1 {
			t.Errorf("expected a single call answered with 503, got %d calls and status %d", n, resp.StatusCode)
		}
	})
}
