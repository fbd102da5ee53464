package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/techpulse-media/contact-backend/models"
)

type mockSubscriptionStore struct {
	subs    []models.PushSubscription
	removed []string
}

func (s *mockSubscriptionStore) GetSubscriptions() ([]models.PushSubscription, error) {
	return s.subs, nil
}

func (s *mockSubscriptionStore) RemoveSubscription(endpoint string) error {
	s.removed = append(s.removed, endpoint)
	return nil
}

// Builds a subscription with freshly generated client keys, pointing at
// the given endpoint.
func testSubscription(t *testing.T, endpoint string) models.PushSubscription {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	p256dh := elliptic.Marshal(elliptic.P256(), priv.PublicKey.X, priv.PublicKey.Y)
	auth := make([]byte, 16)
	if _, err := rand.Read(auth); err != nil {
		t.Fatal(err)
	}
	return models.PushSubscription{
		Endpoint: endpoint,
		Keys: models.SubscriptionKeys{
			P256dh: base64.RawURLEncoding.EncodeToString(p256dh),
			Auth:   base64.RawURLEncoding.EncodeToString(auth),
		},
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		t.Fatal(err)
	}
	return Config{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: "mailto:owner@techpulse.example",
	}
}

func TestMakeConfigFromEnvMissingVars(t *testing.T) {
	for _, varName := range []string{"PUBLIC_VAPID_KEY", "PRIVATE_VAPID_KEY", "VAPID_SUBSCRIBER"} {
		os.Unsetenv(varName)
	}
	if _, err := MakeConfigFromEnv(); err == nil {
		t.Errorf("should have received errors from unset env vars")
	}
}

func TestSendGone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	c := testConfig(t)
	sub := testSubscription(t, server.URL)
	if err := c.Send(&sub, []byte(`{"title":"x"}`)); err != ErrSubscriptionGone {
		t.Errorf("410 from the push service should map to ErrSubscriptionGone, got %v", err)
	}
}

func TestSendOK(t *testing.T) {
	delivered := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered++
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	c := testConfig(t)
	sub := testSubscription(t, server.URL)
	if err := c.Send(&sub, []byte(`{"title":"x"}`)); err != nil {
		t.Errorf("Send failed: %v", err)
	}
	if delivered != 1 {
		t.Errorf("expected one delivery, got %d", delivered)
	}
}

// One gone endpoint is pruned, the others still receive their payload,
// and the loop never aborts.
func TestFanoutPrunesGoneSubscriptions(t *testing.T) {
	mux := http.NewServeMux()
	delivered := map[string]int{}
	mux.HandleFunc("/ok/", func(w http.ResponseWriter, r *http.Request) {
		delivered[r.URL.Path]++
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := &mockSubscriptionStore{
		subs: []models.PushSubscription{
			testSubscription(t, server.URL+"/ok/1"),
			testSubscription(t, server.URL+"/gone"),
			testSubscription(t, server.URL+"/ok/2"),
		},
	}
	Fanout(testConfig(t), store, []byte(`{"title":"New submission"}`))

	if len(store.removed) != 1 || store.removed[0] != server.URL+"/gone" {
		t.Errorf("expected exactly the gone endpoint to be removed, got %v", store.removed)
	}
	if delivered["/ok/1"] != 1 || delivered["/ok/2"] != 1 {
		t.Errorf("healthy endpoints should each receive one payload, got %v", delivered)
	}
}

func TestFanoutSurvivesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := &mockSubscriptionStore{
		subs: []models.PushSubscription{
			testSubscription(t, server.URL+"/a"),
			testSubscription(t, server.URL+"/b"),
		},
	}
	Fanout(testConfig(t), store, []byte(`{"title":"x"}`))
	if len(store.removed) != 0 {
		t.Errorf("transient failures must not prune subscriptions, got %v", store.removed)
	}
}
