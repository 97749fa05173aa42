// Package fingerprint derives a stable (network, device) signature for a
// submission attempt. Hashing is deterministic, so identical devices always
// collide; it raises the cost of repeat submissions, it is not an identity
// system.
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
	"golang.org/x/crypto/blake2b"
)

// Signature is the hashed (network, device) pair for one submission attempt.
type Signature struct {
	IPHash     string
	DeviceHash string
}

// Generate hashes the client IP keyed with the server secret and the
// normalized user-agent attributes. The raw IP never leaves this function.
func Generate(userAgent, clientIP, secret string) (Signature, error) {
	ipHasher, err := blake2b.New256([]byte(secret))
	if err != nil {
		return Signature{}, fmt.Errorf("init keyed hasher: %w", err)
	}
	ipHasher.Write([]byte(clientIP))

	deviceHash := blake2b.Sum256([]byte(deviceSignature(userAgent)))

	return Signature{
		IPHash:     hex.EncodeToString(ipHasher.Sum(nil)),
		DeviceHash: hex.EncodeToString(deviceHash[:]),
	}, nil
}

// deviceSignature normalizes the user-agent into a stable attribute string:
// browser name+version, OS, platform, mobile/bot bits.
func deviceSignature(rawUA string) string {
	ua := useragent.New(rawUA)

	browserName, browserVersion := ua.Browser()
	osInfo := ua.OSInfo()

	return strings.Join([]string{
		browserName,
		browserVersion,
		osInfo.Name,
		osInfo.Version,
		ua.Platform(),
		fmt.Sprintf("mobile=%t", ua.Mobile()),
		fmt.Sprintf("bot=%t", ua.Bot()),
	}, "-")
}

// ClientIP extracts the originating IP, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	if realIP := r.Header.Get("X-Real-Ip"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
