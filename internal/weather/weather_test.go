package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCityWeather(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q":     q.Get("q"),
			"appid": q.Get("appid"),
			"units": q.Get("units"),
			"lang":  q.Get("lang"),
		}
		w.Write([]byte(`{"main":{"temp":27.4,"temp_min":24.6,"temp_max":31.2},"weather":[{"description":"céu limpo"}]}`))
	}))
	defer srv.Close()

	cw := NewClient("key123", srv.URL).CityWeather(context.Background(), "Manaus", "BR")
	if cw == nil {
		t.Fatal("CityWeather returned nil for a successful response")
	}
	if cw.AvgTemp != 27 || cw.MinTemp != 25 || cw.MaxTemp != 31 {
		t.Errorf("temperatures = %v/%v/%v, want rounded 27/25/31", cw.AvgTemp, cw.MinTemp, cw.MaxTemp)
	}
	if cw.Description != "Céu limpo" {
		t.Errorf("description = %q, want capitalised pt-BR text", cw.Description)
	}

	if gotQuery["q"] != "Manaus,BR" {
		t.Errorf("query city = %q, want Manaus,BR", gotQuery["q"])
	}
	if gotQuery["appid"] != "key123" || gotQuery["units"] != "metric" || gotQuery["lang"] != "pt_br" {
		t.Errorf("query params = %v, want key/metric/pt_br", gotQuery)
	}
}

func TestCityWeatherWithoutCountryCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Lisboa" {
			t.Errorf("query city = %q, want bare city name", got)
		}
		w.Write([]byte(`{"main":{"temp":18,"temp_min":15,"temp_max":20},"weather":[{"description":"nublado"}]}`))
	}))
	defer srv.Close()

	if cw := NewClient("key", srv.URL).CityWeather(context.Background(), "Lisboa", ""); cw == nil {
		t.Fatal("CityWeather returned nil")
	}
}

func TestCityWeatherMissingAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("lookup without an API key should not hit the network")
	}))
	defer srv.Close()

	if cw := NewClient("", srv.URL).CityWeather(context.Background(), "Manaus", "BR"); cw != nil {
		t.Errorf("CityWeather without key = %+v, want nil", cw)
	}
}

func TestCityWeatherFailuresReturnNil(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}},
		{"empty weather list", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"main":{"temp":20},"weather":[]}`))
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			if cw := NewClient("key", srv.URL).CityWeather(context.Background(), "Manaus", "BR"); cw != nil {
				t.Errorf("CityWeather = %+v, want nil", cw)
			}
		})
	}
}
