package navigate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ChromeNavigator opens the target in a Chrome tab. Cookies from Jar for
// the target URL are copied into the browser first.
type ChromeNavigator struct {
	Base     string
	Jar      http.CookieJar
	Headless bool
	Logger   *slog.Logger
}

func (n *ChromeNavigator) Navigate(ctx context.Context, target string) error {
	u, err := Resolve(n.Base, target)
	if err != nil {
		return err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", n.Headless),
		chromedp.Flag("no-first-run", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	var title string
	err = chromedp.Run(tabCtx,
		n.setCookies(u),
		chromedp.Navigate(u),
		chromedp.Title(&title),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", u, err)
	}
	if n.Logger != nil {
		n.Logger.Info("navigated", "url", u, "title", title)
	}

	// A visible window stays open until the caller is done with it.
	if !n.Headless {
		<-ctx.Done()
	}
	return nil
}

func (n *ChromeNavigator) setCookies(target string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if n.Jar == nil {
			return nil
		}
		u, err := url.Parse(target)
		if err != nil {
			return err
		}
		for _, c := range n.Jar.Cookies(u) {
			if err := network.SetCookie(c.Name, c.Value).WithURL(target).Do(ctx); err != nil {
				return fmt.Errorf("set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	})
}
