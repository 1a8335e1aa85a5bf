package player

import (
	"io"
	"regexp"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vibes/internal/models"
)

const DefaultDeepLinkDelay = time.Second

var mobileAgent = regexp.MustCompile(`(?i)android|iphone|ipad|ipod|blackberry|iemobile|opera mini`)

// IsMobile reports whether a user agent string looks like a mobile-class device.
func IsMobile(userAgent string) bool {
	return mobileAgent.MatchString(userAgent)
}

// LinkOpener opens a URL outside the process, e.g. [shared.BrowserOpener].
type LinkOpener interface {
	Open(url string) error
}

// LinkFallback opens a track on Spotify instead of previewing it.
//
// On mobile-class devices the app deep link is opened first and the web link follows after
// Delay regardless of whether the app launched. Elsewhere only the web link is opened.
// Opener errors are logged and otherwise ignored.
type LinkFallback struct {
	Opener LinkOpener
	Mobile bool
	Delay  time.Duration
	Logger *log.Logger

	// Schedule runs f after d. Defaults to [time.AfterFunc].
	Schedule func(d time.Duration, f func())
}

// NewLinkFallback builds a fallback for the given device class with the default delay.
func NewLinkFallback(opener LinkOpener, mobile bool, logger *log.Logger) *LinkFallback {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &LinkFallback{Opener: opener, Mobile: mobile, Delay: DefaultDeepLinkDelay, Logger: logger}
}

func (f *LinkFallback) Open(info models.TrackInfo) {
	web, app := info.PlayURLs.SpotifyWeb, info.PlayURLs.SpotifyApp

	if f.Mobile && app != "" {
		f.open(app)
		if web != "" {
			f.schedule(f.Delay, func() { f.open(web) })
		}
		return
	}

	if web == "" {
		f.logger().Warn("no external link for track", "track", info.ID)
		return
	}
	f.open(web)
}

func (f *LinkFallback) open(url string) {
	if err := f.Opener.Open(url); err != nil {
		f.logger().Warn("could not open link", "url", url, "error", err)
	}
}

func (f *LinkFallback) schedule(d time.Duration, fn func()) {
	if f.Schedule != nil {
		f.Schedule(d, fn)
		return
	}
	time.AfterFunc(d, fn)
}

func (f *LinkFallback) logger() *log.Logger {
	if f.Logger == nil {
		return log.New(io.Discard)
	}
	return f.Logger
}
