package marketplace

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/ZilDuck/opensea-trader/internal/config"
	"github.com/ZilDuck/opensea-trader/internal/entity"
	"github.com/ZilDuck/opensea-trader/internal/ethereum"
)

const tokenAddress = "0x57f1887a8BF19b14fC0dF6Fd9B2acc9Af147eA85"

var seaportCfg = config.SeaportConfig{
	Address:         "0x0000000000000068F116a894984e2DB1123eB395",
	Version:         "1.6",
	ConduitKey:      "0x0000007b02230091a7ed01230072f7006a004d60a8d4e71d599b8104250f0000",
	FeeRecipient:    "0x0000a26b00c1F0DF003000390027140000fAa719",
	FeeBps:          250,
	ListingDuration: 24 * time.Hour,
}

type testSigner struct {
	key *ecdsa.PrivateKey
}

func newTestSigner(t *testing.T) testSigner {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	return testSigner{key: key}
}

func (s testSigner) Address() common.Address                                      { return crypto.PubkeyToAddress(s.key.PublicKey) }
func (s testSigner) ChainId() *big.Int                                            { return big.NewInt(4) }
func (s testSigner) Backend() ethereum.Backend                                    { return nil }
func (s testSigner) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) { return nil, nil }
func (s testSigner) Close()                                                       {}

func (s testSigner) SignHash(hash []byte) ([]byte, error) {
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27

	return sig, nil
}

type fakeProtocol struct {
	counter *big.Int

	contract common.Address
	order    seaportOrder
	value    *big.Int
}

func (p *fakeProtocol) Counter(ctx context.Context, offerer common.Address) (*big.Int, error) {
	return p.counter, nil
}

func (p *fakeProtocol) Fulfill(ctx context.Context, contract common.Address, order seaportOrder, value *big.Int) (string, error) {
	p.contract, p.order, p.value = contract, order, value
	return "0xfeed", nil
}

var fixedStart = time.Unix(1697408000, 0)

func newTestClient(srv *httptest.Server, signer testSigner, network config.Network, proto *fakeProtocol) openSea {
	network.MarketplaceApi = srv.URL

	api := apiClient{
		baseUrl: srv.URL,
		client:  NewHttpClient(5*time.Second, 0),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	if network.IsPrimary() {
		api.apiKey = network.MarketplaceApiKey
	}

	return openSea{
		api:      api,
		protocol: proto,
		signer:   signer,
		network:  network,
		seaport:  seaportCfg,
		builder: listingBuilder{
			cfg:  seaportCfg,
			now:  func() time.Time { return fixedStart },
			salt: func() (*big.Int, error) { return big.NewInt(42), nil },
		},
	}
}

func rinkeby() config.Network {
	return config.Network{Name: "rinkeby", ChainId: 4, Chain: "rinkeby", Kind: config.TestNetwork}
}

func mainnet() config.Network {
	return config.Network{Name: "mainnet", ChainId: 1, Chain: "ethereum", Kind: config.PrimaryNetwork, MarketplaceApiKey: "os-key"}
}

func sellOrder(address string) SellOrder {
	return SellOrder{
		Asset:          Asset{TokenId: big.NewInt(5), TokenAddress: tokenAddress, SchemaName: entity.SchemaErc721},
		AccountAddress: address,
		StartAmount:    decimal.RequireFromString("1.5"),
	}
}

func TestListingBuilder_SplitsFee(t *testing.T) {
	seller := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	b := listingBuilder{
		cfg:  seaportCfg,
		now:  func() time.Time { return fixedStart },
		salt: func() (*big.Int, error) { return big.NewInt(42), nil },
	}

	params, err := b.build(sellOrder(seller), big.NewInt(3))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(params.Offer) != 1 || params.Offer[0].ItemType != itemErc721 || params.Offer[0].IdentifierOrCriteria.String() != "5" {
		t.Errorf("unexpected offer %+v", params.Offer)
	}
	if len(params.Consideration) != 2 {
		t.Fatalf("expected seller and fee items, got %d", len(params.Consideration))
	}
	if got := params.Consideration[0]; got.StartAmount.String() != "1462500000000000000" || got.Recipient != seller {
		t.Errorf("unexpected seller item %+v", got)
	}
	if got := params.Consideration[1]; got.StartAmount.String() != "37500000000000000" || !strings.EqualFold(got.Recipient, seaportCfg.FeeRecipient) {
		t.Errorf("unexpected fee item %+v", got)
	}
	if params.TotalOriginalConsiderationItems != 2 {
		t.Errorf("expected 2 original consideration items, got %d", params.TotalOriginalConsiderationItems)
	}
	if params.Counter.String() != "3" || params.Salt.String() != "42" {
		t.Errorf("unexpected counter/salt %s/%s", params.Counter, params.Salt)
	}
	if want := fixedStart.Add(24 * time.Hour).Unix(); params.EndTime.Big().Int64() != want {
		t.Errorf("expected end time %d, got %s", want, params.EndTime)
	}
}

func TestListingBuilder_NoFeeItemWithoutFee(t *testing.T) {
	cfg := seaportCfg
	cfg.FeeBps = 0
	b := listingBuilder{cfg: cfg, now: time.Now, salt: randomSalt}

	params, err := b.build(sellOrder("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), big.NewInt(0))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(params.Consideration) != 1 || params.Consideration[0].StartAmount.String() != "1500000000000000000" {
		t.Errorf("expected the full price to the seller, got %+v", params.Consideration)
	}
}

func TestCreateSellOrder_PostsSignedListing(t *testing.T) {
	signer := newTestSigner(t)

	var posted postListingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v2/orders/rinkeby/seaport/listings" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-KEY") != "" {
			t.Errorf("test network must not send an api key")
		}
		if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
			t.Errorf("decode body: %v", err)
		}

		w.Write([]byte(`{"order":{"order_hash":"0xabc","expiration_time":1699999999,"side":"ask","current_price":"1500000000000000000"}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, signer, rinkeby(), &fakeProtocol{counter: big.NewInt(7)})

	order, err := client.CreateSellOrder(context.Background(), sellOrder(signer.Address().Hex()))
	if err != nil {
		t.Fatalf("CreateSellOrder: %v", err)
	}

	if order.ExpirationTime != 1699999999 || order.Hash != "0xabc" {
		t.Errorf("unexpected order %+v", order)
	}
	if posted.Parameters.Counter.String() != "7" {
		t.Errorf("expected counter 7, got %s", posted.Parameters.Counter)
	}
	if posted.ProtocolAddress != seaportCfg.Address {
		t.Errorf("unexpected protocol address %s", posted.ProtocolAddress)
	}

	hash, _, err := apitypes.TypedDataAndHash(typedOrder(posted.Parameters, seaportCfg, big.NewInt(4)))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	sig, err := hexutil.Decode(posted.Signature)
	if err != nil || len(sig) != 65 {
		t.Fatalf("bad signature %q: %v", posted.Signature, err)
	}
	if sig[64] != 27 && sig[64] != 28 {
		t.Errorf("expected v in {27, 28}, got %d", sig[64])
	}
	sig[64] -= 27

	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if crypto.PubkeyToAddress(*pub) != signer.Address() {
		t.Errorf("signature recovers %s, expected %s", crypto.PubkeyToAddress(*pub).Hex(), signer.Address().Hex())
	}
}

func TestCreateSellOrder_RejectsForeignAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer srv.Close()

	client := newTestClient(srv, newTestSigner(t), rinkeby(), &fakeProtocol{counter: big.NewInt(0)})

	if _, err := client.CreateSellOrder(context.Background(), sellOrder("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")); err == nil {
		t.Fatal("expected an error for an account that is not the signer")
	}
}

func TestCreateSellOrder_ReturnsApiError(t *testing.T) {
	signer := newTestSigner(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":["Outstanding order to wallet balance ratio exceeds allowed limit."]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, signer, rinkeby(), &fakeProtocol{counter: big.NewInt(0)})

	_, err := client.CreateSellOrder(context.Background(), sellOrder(signer.Address().Hex()))

	var apiErr ApiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected ApiError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || !strings.Contains(apiErr.Error(), "ratio exceeds") {
		t.Errorf("unexpected api error %v", apiErr)
	}
}

func TestGetOrder_QueriesCheapestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/orders/ethereum/seaport/listings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-API-KEY") != "os-key" {
			t.Errorf("expected api key on the primary network, got %q", r.Header.Get("X-API-KEY"))
		}

		q := r.URL.Query()
		if q.Get("asset_contract_address") != tokenAddress || q.Get("token_ids") != "5" || q.Get("order_direction") != "asc" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}

		w.Write([]byte(`{"next":null,"orders":[{"order_hash":"0xabc","side":"ask","protocol_address":"0x0000000000000068F116a894984e2DB1123eB395","current_price":"1500000000000000000.5","maker":{"address":"0xb"}}]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, newTestSigner(t), mainnet(), &fakeProtocol{})

	order, err := client.GetOrder(context.Background(), OrderQuery{
		Side:         entity.AskSide,
		TokenId:      big.NewInt(5),
		TokenAddress: tokenAddress,
		Protocol:     ProtocolSeaport,
	})
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}

	price, err := order.Price()
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if price.String() != "1500000000000000000" {
		t.Errorf("expected truncated price, got %s", price)
	}
	if order.Maker != "0xb" || order.Side != entity.AskSide {
		t.Errorf("unexpected order %+v", order)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"orders":[]}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, newTestSigner(t), rinkeby(), &fakeProtocol{})

	_, err := client.GetOrder(context.Background(), OrderQuery{TokenId: big.NewInt(5), TokenAddress: tokenAddress})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestGetOrder_UpstreamFailureIsNotRetried(t *testing.T) {
	t.Setenv("OPENSEA_RETRIES", "")

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"orders":[{"order_hash":"0xabc","side":"ask","current_price":"1"}]}`))
	}))
	defer srv.Close()

	cfg := config.Get()
	client := newTestClient(srv, newTestSigner(t), rinkeby(), &fakeProtocol{})
	client.api.client = NewHttpClient(cfg.OpenSea.Timeout, cfg.OpenSea.Retries)

	_, err := client.GetOrder(context.Background(), OrderQuery{TokenId: big.NewInt(5), TokenAddress: tokenAddress})

	var apiErr ApiError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected the 503 to surface, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected a single call, got %d", n)
	}
}

func TestFulfillOrder_SubmitsSeaportOrder(t *testing.T) {
	signer := newTestSigner(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/listings/fulfillment_data" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req fulfillmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Listing.Hash != "0xabc" || req.Listing.Chain != "rinkeby" || req.Fulfiller.Address != signer.Address().Hex() {
			t.Errorf("unexpected fulfillment request %+v", req)
		}

		w.Write([]byte(`{"protocol":"seaport1.6","fulfillment_data":{"transaction":{"function":"fulfillOrder","chain":4,` +
			`"to":"0x0000000000000068F116a894984e2DB1123eB395","value":1500000000000000000},` +
			`"orders":[{"parameters":{"offerer":"0x00000000000000000000000000000000000000b0","zone":"0x0000000000000000000000000000000000000000",` +
			`"offer":[{"itemType":2,"token":"` + tokenAddress + `","identifierOrCriteria":"5","startAmount":"1","endAmount":"1"}],` +
			`"consideration":[{"itemType":0,"token":"0x0000000000000000000000000000000000000000","identifierOrCriteria":"0",` +
			`"startAmount":"1462500000000000000","endAmount":"1462500000000000000","recipient":"0x00000000000000000000000000000000000000b0"}],` +
			`"orderType":0,"startTime":"1697408000","endTime":"1697494400",` +
			`"zoneHash":"0x0000000000000000000000000000000000000000000000000000000000000000","salt":"0x2a",` +
			`"conduitKey":"0x0000007b02230091a7ed01230072f7006a004d60a8d4e71d599b8104250f0000","totalOriginalConsiderationItems":2},` +
			`"signature":"0x0102"}]}}`))
	}))
	defer srv.Close()

	proto := &fakeProtocol{}
	client := newTestClient(srv, signer, rinkeby(), proto)

	hash, err := client.FulfillOrder(context.Background(), &entity.Order{Hash: "0xabc", ProtocolAddress: seaportCfg.Address}, signer.Address().Hex())
	if err != nil {
		t.Fatalf("FulfillOrder: %v", err)
	}

	if hash != "0xfeed" {
		t.Errorf("expected tx hash from the protocol, got %s", hash)
	}
	if proto.contract != common.HexToAddress(seaportCfg.Address) {
		t.Errorf("unexpected contract %s", proto.contract.Hex())
	}
	if proto.value.String() != "1500000000000000000" {
		t.Errorf("unexpected value %s", proto.value)
	}

	p := proto.order.Parameters
	if p.Offer[0].IdentifierOrCriteria.Int64() != 5 || p.Salt.Int64() != 42 {
		t.Errorf("unexpected converted parameters %+v", p)
	}
	if p.TotalOriginalConsiderationItems.Int64() != 2 {
		t.Errorf("expected 2 original consideration items, got %s", p.TotalOriginalConsiderationItems)
	}
	if len(proto.order.Signature) != 2 {
		t.Errorf("unexpected signature %x", proto.order.Signature)
	}
}

func TestFactory_MakeClient(t *testing.T) {
	f, err := NewFactory(seaportCfg, 4, NewHttpClient(time.Second, 0))
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}

	signer := newTestSigner(t)

	if c := f.MakeClient(signer, mainnet()); c == nil {
		t.Error("expected a client for the primary network")
	}
	if c := f.MakeClient(signer, rinkeby()); c == nil {
		t.Error("expected a client for the test network")
	}
	if c := f.MakeClient(signer, config.Network{Name: "local"}); c != nil {
		t.Errorf("expected no client for an unclassified network, got %T", c)
	}
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	cases := map[string]string{
		`"12"`:   "12",
		`12`:     "12",
		`"0x2a"`: "42",
		`null`:   "0",
	}

	for in, want := range cases {
		var n Number
		if err := json.Unmarshal([]byte(in), &n); err != nil {
			t.Errorf("unmarshal %s: %v", in, err)
			continue
		}
		if n.String() != want {
			t.Errorf("unmarshal %s = %s, want %s", in, n, want)
		}
	}

	for _, in := range []string{`"twelve"`, `"-1"`, `-5`} {
		var n Number
		if err := json.Unmarshal([]byte(in), &n); err == nil {
			t.Errorf("expected an error for %s, got %s", in, n)
		}
	}
}
