package normalize

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"qrisk/internal/model"
)

// ipHost describes a host that resolved to an IP literal, including
// the encoding trick used to spell it.
type ipHost struct {
	canonical string
	kind      model.ObfuscationKind
	points    int
	detail    string
}

// classifyIPHost recognizes IP-address hosts in every spelling
// attackers use: plain dotted quads, single 32-bit integers, hex and
// octal octets, and IPv6 literals. Returns nil for anything that looks
// like a domain name.
func classifyIPHost(host string) *ipHost {
	if host == "" {
		return nil
	}

	if strings.Contains(host, ":") {
		if ip := net.ParseIP(host); ip != nil {
			return &ipHost{
				canonical: ip.String(),
				kind:      model.ObfuscationIPDecimal,
				points:    pointsIPDecimal,
				detail:    "ipv6 literal",
			}
		}
		return nil
	}

	parts := strings.Split(host, ".")
	switch len(parts) {
	case 4:
		return classifyQuad(parts)
	case 1:
		return classifyInteger(host)
	}
	return nil
}

// classifyQuad handles four-part hosts where every octet is numeric:
// plain decimal, hex (0xc0.0xa8.0x1.0x1), or octal with leading zeros
// (0300.0250.0001.0001). Mixed spellings count as the more obfuscated
// form present.
func classifyQuad(parts []string) *ipHost {
	var vals [4]uint64
	sawHex := false
	sawOctal := false

	for i, p := range parts {
		switch {
		case p == "":
			return nil
		case strings.HasPrefix(p, "0x"):
			if len(p) == 2 {
				return nil
			}
			v, err := strconv.ParseUint(p[2:], 16, 64)
			if err != nil || v > 255 {
				return nil
			}
			vals[i] = v
			sawHex = true
		case !allDigits(p):
			return nil
		case len(p) > 1 && p[0] == '0':
			v, err := strconv.ParseUint(p, 8, 64)
			if err != nil || v > 255 {
				return nil
			}
			vals[i] = v
			sawOctal = true
		default:
			v, err := strconv.ParseUint(p, 10, 64)
			if err != nil || v > 255 {
				return nil
			}
			vals[i] = v
		}
	}

	canonical := fmt.Sprintf("%d.%d.%d.%d", vals[0], vals[1], vals[2], vals[3])
	switch {
	case sawHex:
		return &ipHost{canonical: canonical, kind: model.ObfuscationIPHex, points: pointsIPHex, detail: "hex octets"}
	case sawOctal:
		return &ipHost{canonical: canonical, kind: model.ObfuscationIPOctal, points: pointsIPOctal, detail: "octal octets"}
	default:
		return &ipHost{canonical: canonical, kind: model.ObfuscationIPDecimal, points: pointsIPDecimal, detail: "dotted quad"}
	}
}

// classifyInteger handles single-number hosts: http://3232235777/ and
// http://0xc0a80101/ both mean 192.168.1.1.
func classifyInteger(host string) *ipHost {
	if strings.HasPrefix(host, "0x") && len(host) > 2 {
		v, err := strconv.ParseUint(host[2:], 16, 64)
		if err != nil || v > 0xFFFFFFFF {
			return nil
		}
		return &ipHost{
			canonical: quadFromUint32(uint32(v)),
			kind:      model.ObfuscationIPHex,
			points:    pointsIPHex,
			detail:    "hex integer",
		}
	}

	if !allDigits(host) {
		return nil
	}

	if len(host) > 1 && host[0] == '0' {
		v, err := strconv.ParseUint(host, 8, 64)
		if err != nil || v > 0xFFFFFFFF {
			return nil
		}
		return &ipHost{
			canonical: quadFromUint32(uint32(v)),
			kind:      model.ObfuscationIPOctal,
			points:    pointsIPOctal,
			detail:    "octal integer",
		}
	}

	v, err := strconv.ParseUint(host, 10, 64)
	if err != nil || v > 0xFFFFFFFF {
		return nil
	}
	return &ipHost{
		canonical: quadFromUint32(uint32(v)),
		kind:      model.ObfuscationIPDecimal,
		points:    pointsIPDecimal,
		detail:    "decimal integer",
	}
}

func quadFromUint32(v uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", v>>24, (v>>16)&0xff, (v>>8)&0xff, v&0xff)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
