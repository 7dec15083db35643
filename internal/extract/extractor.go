package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"

	"post_radar/internal/domain"
)

// Selectors for post containers on the search results page. Both card layouts
// are in use across instances.
const ContainerSelector = "div.tweet-card, div.timeline-item"

const sourceURLFormat = "https://x.com/%s/status/%s"

// Seen reports whether a post identifier has been collected before.
type Seen interface {
	Seen(id string) bool
}

// Extractor turns one post container into a validated domain.Post. Candidates
// that fail any rule are discarded silently; extraction never errors.
type Extractor struct {
	targetLang string
	salt       string
	seen       Seen
}

func New(targetLang, salt string, seen Seen) *Extractor {
	return &Extractor{
		targetLang: targetLang,
		salt:       salt,
		seen:       seen,
	}
}

// Extract applies the discard rules in order: derivable unseen identifier,
// non-empty body text, detected language equal to the target, present
// username. It returns the post, a reference to attached media if any, and
// whether the candidate survived.
func (e *Extractor) Extract(item *goquery.Selection, term string) (*domain.Post, *domain.MediaRef, bool) {
	id := postID(item)
	if id == "" || e.seen.Seen(id) {
		return nil, nil, false
	}

	text := strings.TrimSpace(item.Find("div.tweet-content").First().Text())
	if text == "" {
		return nil, nil, false
	}

	if !e.matchesTargetLanguage(text) {
		return nil, nil, false
	}

	username := strings.Trim(strings.TrimSpace(item.Find("a.username").First().Text()), "@")
	if username == "" {
		return nil, nil, false
	}

	publishedAt, _ := item.Find(".tweet-date a").First().Attr("title")
	stats := item.Find(".tweet-stats").First()

	post := &domain.Post{
		ID:          id,
		Text:        text,
		PublishedAt: publishedAt,
		SourceURL:   fmt.Sprintf(sourceURLFormat, username, id),
		Author: domain.Author{
			PseudonymizedID: e.Pseudonymize(username),
			Username:        username,
			DisplayName:     strings.TrimSpace(item.Find("a.fullname").First().Text()),
			Verified:        item.Find(".icon-verified").Length() > 0,
		},
		Engagement: domain.Engagement{
			Replies:  statValue(stats, ".icon-comment"),
			Retweets: statValue(stats, ".icon-retweet"),
			Likes:    statValue(stats, ".icon-heart"),
		},
		SearchTerm:  term,
		CollectedAt: time.Now().UTC(),
		IsReply:     item.Find(".tweet-in-reply-to").Length() > 0,
	}

	return post, mediaRef(item, username, id), true
}

func (e *Extractor) matchesTargetLanguage(text string) bool {
	info := whatlanggo.Detect(text)
	if info.Lang == -1 {
		return false
	}
	return info.Lang.Iso6391() == e.targetLang
}

// Pseudonymize returns the lowercase hex sha256 of username plus the fixed
// salt. Deterministic and one-way.
func (e *Extractor) Pseudonymize(username string) string {
	sum := sha256.Sum256([]byte(username + e.salt))
	return hex.EncodeToString(sum[:])
}

func postID(item *goquery.Selection) string {
	href, ok := item.Find(`a[href*="/status/"]`).First().Attr("href")
	if !ok || !strings.Contains(href, "/status/") {
		return ""
	}
	id := href[strings.LastIndex(href, "/status/")+len("/status/"):]
	if i := strings.IndexByte(id, '#'); i >= 0 {
		id = id[:i]
	}
	return id
}

// mediaRef inspects the attachments block. Image wins over video when a
// container carries both.
func mediaRef(item *goquery.Selection, username, id string) *domain.MediaRef {
	if src, ok := item.Find("div.attachments .attachment.image img").First().Attr("src"); ok && src != "" {
		return &domain.MediaRef{Kind: domain.MediaImage, URL: src, Username: username, PostID: id}
	}
	if item.Find("div.attachments .attachment.video-container").Length() > 0 {
		return &domain.MediaRef{Kind: domain.MediaVideo, Username: username, PostID: id}
	}
	return nil
}

var statCharset = regexp.MustCompile(`[^\d.km]`)

func statValue(stats *goquery.Selection, iconSelector string) int {
	if stats.Length() == 0 {
		return 0
	}
	icon := stats.Find(iconSelector).First()
	if icon.Length() == 0 {
		return 0
	}
	return ParseStatValue(icon.Parent().Text())
}

// ParseStatValue parses a free-form engagement counter like "1.2K" or
// "3,401". Everything except digits, the decimal point and the k/m suffixes
// is stripped; k multiplies by a thousand, m by a million. Anything
// unparsable yields 0.
func ParseStatValue(text string) int {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return 0
	}
	t = statCharset.ReplaceAllString(t, "")

	multiplier := 1.0
	if strings.Contains(t, "k") {
		multiplier = 1_000
		t = strings.ReplaceAll(t, "k", "")
	} else if strings.Contains(t, "m") {
		multiplier = 1_000_000
		t = strings.ReplaceAll(t, "m", "")
	}

	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0
	}
	return int(v * multiplier)
}
