//go:build integration

package navigate

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"
	"time"
)

// Requires a local Chrome.
func TestChromeNavigatorHeadless(t *testing.T) {
	srv := newResultServer(t)

	jar, _ := cookiejar.New(nil)
	u, _ := url.Parse(srv.URL)
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "abc", Path: "/"}})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	nav := &ChromeNavigator{Base: srv.URL + "/upload", Jar: jar, Headless: true}
	if err := nav.Navigate(ctx, "/result/42"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
}
