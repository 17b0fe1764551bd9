package visitor

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Urlsy/app/models"
)

// UnknownIP is used when neither proxy headers nor the socket reveal an address.
const UnknownIP = "0.0.0.0"

// HeaderFunc reads one request header by name.
type HeaderFunc func(name string) string

var clientIPHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
	"X-Vercel-Forwarded-For",
}

// Visit describes the visitor behind one redirect.
type Visit struct {
	IP         string
	IPHash     string
	Referrer   string
	UserAgent  string
	Country    string
	Region     string
	City       string
	DeviceType string
}

// ClientIP returns the first address of the first proxy header present, then
// the socket address, then UnknownIP.
func ClientIP(get HeaderFunc, remote string) string {
	for _, name := range clientIPHeaders {
		value := get(name)
		if value == "" {
			continue
		}
		if ip := strings.TrimSpace(strings.Split(value, ",")[0]); ip != "" {
			return ip
		}
	}
	if remote = strings.TrimSpace(remote); remote != "" {
		return remote
	}
	return UnknownIP
}

// HashIP returns hex(sha256(salt:ip)). Raw addresses are never stored.
func HashIP(salt, ip string) string {
	sum := sha256.Sum256([]byte(salt + ":" + ip))
	return hex.EncodeToString(sum[:])
}

// Geo reads the edge proxy geo headers. Cloudflare's "XX" (unknown country) is dropped.
func Geo(get HeaderFunc) (country, region, city string) {
	country = firstHeader(get, "X-Vercel-IP-Country", "CF-IPCountry")
	if strings.EqualFold(country, "XX") {
		country = ""
	}
	region = firstHeader(get, "X-Vercel-IP-Region")
	city = firstHeader(get, "X-Vercel-IP-City")
	if decoded, err := url.PathUnescape(city); err == nil {
		city = decoded
	}
	return country, region, city
}

// DeviceType classifies a user agent as bot, tablet, mobile or desktop.
func DeviceType(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return models.DeviceUnknown
	}
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "bot"), strings.Contains(ua, "crawler"), strings.Contains(ua, "spider"):
		return models.DeviceBot
	case strings.Contains(ua, "tablet"), strings.Contains(ua, "ipad"):
		return models.DeviceTablet
	case strings.Contains(ua, "mobi"), strings.Contains(ua, "android"):
		return models.DeviceMobile
	default:
		return models.DeviceDesktop
	}
}

// FromRequest collects the visit details of a Fiber request.
func FromRequest(c *fiber.Ctx, salt string) Visit {
	get := func(name string) string { return c.Get(name) }
	ip := ClientIP(get, c.IP())
	country, region, city := Geo(get)
	ua := c.Get(fiber.HeaderUserAgent)

	return Visit{
		IP:         ip,
		IPHash:     HashIP(salt, ip),
		Referrer:   c.Get(fiber.HeaderReferer),
		UserAgent:  ua,
		Country:    country,
		Region:     region,
		City:       city,
		DeviceType: DeviceType(ua),
	}
}

func firstHeader(get HeaderFunc, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(get(name)); v != "" {
			return v
		}
	}
	return ""
}
