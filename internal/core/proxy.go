package core

import (
	"net"
	"net/http"
	"strings"
)

// TrustedScheme выставляет r.URL.Scheme: https для TLS-соединений и для запросов
// от доверенного прокси с X-Forwarded-Proto: https, иначе http.
// Чужим клиентам X-Forwarded-Proto не доверяем.
func TrustedScheme(trustedIPs []string) func(http.Handler) http.Handler {
	trusted := parseNets(trustedIPs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme := "http"
			switch {
			case r.TLS != nil:
				scheme = "https"
			case isTrusted(trusted, r.RemoteAddr):
				if strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https") {
					scheme = "https"
				}
			}
			r.URL.Scheme = scheme
			next.ServeHTTP(w, r)
		})
	}
}

func parseNets(list []string) []*net.IPNet {
	trusted := make([]*net.IPNet, 0, len(list))
	for _, ipStr := range list {
		_, ipNet, err := net.ParseCIDR(ipStr)
		if err != nil {
			// Для одиночных IP
			ip := net.ParseIP(ipStr)
			if ip == nil {
				LogWarn("Некорректный адрес доверенного прокси", map[string]interface{}{"value": ipStr})
				continue
			}
			bits := 8 * len(ip)
			ipNet = &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}
		}
		trusted = append(trusted, ipNet)
	}
	return trusted
}

func isTrusted(trusted []*net.IPNet, remoteAddr string) bool {
	if len(trusted) == 0 {
		return false
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
