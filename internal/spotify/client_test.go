package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tandem/internal/shared"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(ClientOpts{
		BaseURL:         srv.URL,
		HTTPClient:      srv.Client(),
		RateLimitPerSec: 1000,
		Logger:          log.New(io.Discard),
	})
	return client, srv
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Me", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
				t.Errorf("unexpected auth header: %q", got)
			}
			w.Write([]byte(`{"id": "alice", "display_name": "Alice", "product": "premium"}`))
		})
		defer srv.Close()

		user, err := client.Me(ctx, "token-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != "alice" || user.Product != "premium" {
			t.Errorf("unexpected user: %+v", user)
		}
	})

	t.Run("CurrentPlayback", func(t *testing.T) {
		t.Run("Parses Player State", func(t *testing.T) {
			client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{
					"device": {"id": "device-1", "is_active": true, "volume_percent": 80},
					"repeat_state": "off",
					"shuffle_state": false,
					"context": {"type": "album", "uri": "spotify:album:abc"},
					"timestamp": 1748779200000,
					"progress_ms": 30000,
					"is_playing": true,
					"item": {"id": "track-1", "name": "First Song", "duration_ms": 240000,
						"artists": [{"name": "The Band"}]}
				}`))
			})
			defer srv.Close()

			playback, err := client.CurrentPlayback(ctx, "token-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if playback == nil {
				t.Fatal("expected playback state")
			}
			if playback.ProgressMs == nil || *playback.ProgressMs != 30000 {
				t.Errorf("unexpected progress: %v", playback.ProgressMs)
			}
			if playback.Device == nil || playback.Device.VolumePercent == nil || *playback.Device.VolumePercent != 80 {
				t.Errorf("unexpected device: %+v", playback.Device)
			}
			if playback.Item == nil || playback.Item.Name != "First Song" {
				t.Errorf("unexpected item: %+v", playback.Item)
			}
		})

		t.Run("No Active Device", func(t *testing.T) {
			client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
			defer srv.Close()

			playback, err := client.CurrentPlayback(ctx, "token-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if playback != nil {
				t.Errorf("expected nil playback on 204, got %+v", playback)
			}
		})

		t.Run("Expired Token", func(t *testing.T) {
			client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})
			defer srv.Close()

			_, err := client.CurrentPlayback(ctx, "stale")
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Fatalf("expected ErrTokenExpired, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			})
			defer srv.Close()

			_, err := client.CurrentPlayback(ctx, "token-1")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("PlayContextOffset", func(t *testing.T) {
		var body map[string]any
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Path != "/me/player/play" {
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
			w.WriteHeader(http.StatusNoContent)
		})
		defer srv.Close()

		if err := client.PlayContextOffset(ctx, "token-1", "spotify:album:abc", "track-1", 61000); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if body["context_uri"] != "spotify:album:abc" {
			t.Errorf("unexpected context_uri: %v", body["context_uri"])
		}
		if offset, ok := body["offset"].(map[string]any); !ok || offset["uri"] != "spotify:track:track-1" {
			t.Errorf("unexpected offset: %v", body["offset"])
		}
		if body["position_ms"] != float64(61000) {
			t.Errorf("unexpected position_ms: %v", body["position_ms"])
		}
	})

	t.Run("SetVolume Clamps", func(t *testing.T) {
		var query string
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.RawQuery
			w.WriteHeader(http.StatusNoContent)
		})
		defer srv.Close()

		if err := client.SetVolume(ctx, "token-1", "device-1", 150); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if query != "volume_percent=100&device_id=device-1" {
			t.Errorf("unexpected query: %q", query)
		}
	})

	t.Run("SetShuffle And SetRepeat", func(t *testing.T) {
		var paths []string
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)
			w.WriteHeader(http.StatusNoContent)
		})
		defer srv.Close()

		if err := client.SetShuffle(ctx, "token-1", "device-1", false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := client.SetRepeat(ctx, "token-1", "device-1", RepeatOff); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(paths) != 2 {
			t.Fatalf("expected 2 requests, got %d", len(paths))
		}
		if paths[0] != "/me/player/shuffle?state=false&device_id=device-1" {
			t.Errorf("unexpected shuffle request: %q", paths[0])
		}
		if paths[1] != "/me/player/repeat?state=off&device_id=device-1" {
			t.Errorf("unexpected repeat request: %q", paths[1])
		}
	})
}
