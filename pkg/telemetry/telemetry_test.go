package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	ppm, err := ParseDocument(strings.NewReader(`{"co2":{"value":812,"unit":"ppm"},"temp":{"value":20}}`))
	require.NoError(t, err)
	require.Equal(t, uint16(812), ppm)

	ppm, err = ParseDocument(strings.NewReader(`{}`))
	require.NoError(t, err)
	require.Zero(t, ppm)

	_, err = ParseDocument(strings.NewReader(`{"co2":`))
	require.Error(t, err)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/data" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"co2":{"value":1234}}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	ppm, err := NewHTTPSource(srv.URL + "/api/data").Co2(ctx)
	require.NoError(t, err)
	require.Equal(t, uint16(1234), ppm)

	_, err = NewHTTPSource(srv.URL + "/missing").Co2(ctx)
	require.Error(t, err)
	require.Zero(t, Co2OrZero(ctx, NewHTTPSource(srv.URL+"/missing")))
	require.Zero(t, Co2OrZero(ctx, nil))
}

func TestMQTTSourceUpdate(t *testing.T) {
	s := &MQTTSource{Topic: "room/co2"}
	_, err := s.Co2(context.Background())
	require.ErrorIs(t, err, ErrNoValue)

	s.update([]byte(`{"co2":{"value":640}}`))
	ppm, err := s.Co2(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint16(640), ppm)

	s.update([]byte(`garbage`))
	ppm, err = s.Co2(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint16(640), ppm)
}
