// Package views records who opened a playback session: browser, OS and
// country, for the video analytics dashboard. Recording is best-effort and
// never fails a request.
package views

import (
	"context"
	"log"
	"net"
	"strings"

	"github.com/mssola/useragent"
	"github.com/vidview/vidview/internal/database"
	"github.com/vidview/vidview/internal/geoip"
)

type Recorder struct {
	db    database.DBTX
	geoip *geoip.Resolver
}

func NewRecorder(db database.DBTX, resolver *geoip.Resolver) *Recorder {
	return &Recorder{db: db, geoip: resolver}
}

func (r *Recorder) Record(ctx context.Context, videoID, remoteAddr, userAgent string) {
	if r == nil || r.db == nil {
		return
	}

	browser, os := parseUserAgent(userAgent)
	country, city := "", ""
	if r.geoip != nil {
		country, city = r.geoip.Lookup(stripPort(remoteAddr))
	}

	if _, err := r.db.Exec(ctx,
		`INSERT INTO view_events (video_id, browser, os, country, city) VALUES ($1, $2, $3, $4, $5)`,
		videoID, browser, os, country, city,
	); err != nil {
		log.Printf("views: failed to record view for %s: %v", videoID, err)
	}
}

func parseUserAgent(raw string) (browser, os string) {
	if raw == "" {
		return "Unknown", "Unknown"
	}
	ua := useragent.New(raw)
	name, _ := ua.Browser()
	if name == "" {
		name = "Unknown"
	}
	osName := ua.OS()
	if osName == "" {
		osName = "Unknown"
	}
	return name, osName
}

func stripPort(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return strings.TrimSpace(remoteAddr)
}
