// Package scan acquires raw browser storage inventories and normalizes them
// into a single model.RawScan shape before anything downstream sees them.
package scan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/raysh454/crumb/internal/model"
)

// ErrMalformed reports input that is not valid JSON.
var ErrMalformed = errors.New("scan: malformed json")

// Normalize returns a copy of raw with defaults applied: nil collections
// become empty, negative sizes become 0, domains are lowercased and trimmed,
// SameSite values are canonicalized, cookies without an expiry are session
// cookies and a missing timestamp becomes now.
func Normalize(raw model.RawScan, now time.Time) model.RawScan {
	out := raw

	out.Cookies = make([]model.Cookie, 0, len(raw.Cookies))
	for _, c := range raw.Cookies {
		c.Domain = strings.ToLower(strings.TrimSpace(c.Domain))
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" && c.Domain == "" {
			continue
		}
		if c.Path == "" {
			c.Path = "/"
		}
		c.SameSite = model.ParseSameSite(string(c.SameSite))
		if c.ExpirationDate == nil {
			c.Session = true
		} else if c.Session {
			c.ExpirationDate = nil
		}
		out.Cookies = append(out.Cookies, c)
	}

	out.LocalStorage = normalizeUsage(raw.LocalStorage)
	out.SessionStorage = normalizeUsage(raw.SessionStorage)

	if out.IndexedDB.EstimatedSize < 0 {
		out.IndexedDB.EstimatedSize = 0
	}
	if out.IndexedDB.Databases == nil {
		out.IndexedDB.Databases = []string{}
	}

	if out.Metadata.Timestamp <= 0 {
		out.Metadata.Timestamp = now.UnixMilli()
	}
	if out.Metadata.DurationMs < 0 {
		out.Metadata.DurationMs = 0
	}

	out.ThirdPartyScripts = dedupeHosts(raw.ThirdPartyScripts)
	return out
}

func normalizeUsage(u model.StorageUsage) model.StorageUsage {
	out := model.StorageUsage{
		TotalSize: u.TotalSize,
		ByDomain:  make(map[string]int64, len(u.ByDomain)),
	}
	var sum int64
	for domain, size := range u.ByDomain {
		if size <= 0 {
			continue
		}
		d := strings.ToLower(strings.TrimSpace(domain))
		out.ByDomain[d] += size
		sum += size
	}
	if out.TotalSize < 0 {
		out.TotalSize = 0
	}
	if out.TotalSize == 0 {
		out.TotalSize = sum
	}
	return out
}

func dedupeHosts(hosts []string) []string {
	seen := make(map[string]struct{}, len(hosts))
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// DecodeRaw reads a raw scan as either the wrapped object
// ({"cookies": [...], "localStorage": {...}, ...}) or a bare cookie array.
// An empty body decodes to an empty scan. Only malformed JSON is an error:
// a field or cookie of the wrong shape is dropped and the rest is kept.
func DecodeRaw(r io.Reader) (model.RawScan, error) {
	var raw model.RawScan
	data, err := io.ReadAll(r)
	if err != nil {
		return raw, fmt.Errorf("read raw scan: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return raw, nil
	}
	if !json.Valid(data) {
		return raw, fmt.Errorf("decode raw scan: %w", ErrMalformed)
	}

	switch data[0] {
	case '[':
		raw.Cookies = decodeCookies(data)
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return model.RawScan{}, fmt.Errorf("decode raw scan: %w", err)
		}
		raw.Cookies = decodeCookies(fields["cookies"])
		decodeField(fields["localStorage"], &raw.LocalStorage)
		decodeField(fields["sessionStorage"], &raw.SessionStorage)
		decodeField(fields["indexedDB"], &raw.IndexedDB)
		decodeField(fields["metadata"], &raw.Metadata)
		decodeField(fields["thirdPartyScripts"], &raw.ThirdPartyScripts)
	}
	return raw, nil
}

func decodeCookies(data json.RawMessage) []model.Cookie {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := make([]model.Cookie, 0, len(items))
	for _, item := range items {
		var c model.Cookie
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

// decodeField leaves dst at its zero value when data is absent or of the wrong shape.
func decodeField[T any](data json.RawMessage, dst *T) {
	if len(data) == 0 {
		return
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return
	}
	*dst = v
}
