package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ratson/go-watchman/internal/bser"
)

// capabilityMinVersion is the static table of capability name to the
// minimum dotted server version that supports it, consulted only when
// the server is too old to answer a capability query directly and a
// capabilities map must be synthesized from its version string.
var capabilityMinVersion = map[string]string{
	"cmd-watch-del-all": "3.1.1",
	"cmd-watch-project": "3.1",
	"relative_root":     "3.3",
	"term-dirname":      "3.1",
	"term-idirname":     "3.1",
	"wildmatch":         "3.7",
}

// CapabilityCheckRequest names the capabilities a caller requires to
// function and the ones it would merely like to know about.
type CapabilityCheckRequest struct {
	Optional []string
	Required []string
}

// CapabilityCheckResponse is the result of CapabilityCheck: the
// server's version string and a name-to-supported map covering every
// capability named in the request.
type CapabilityCheckResponse struct {
	Version      string
	Capabilities map[string]bool
}

// buildCapabilityCommand constructs the ["version", {...}] BSER request
// capabilityCheck sends.
func buildCapabilityCommand(req CapabilityCheckRequest) bser.Value {
	opts := bser.NewObject()
	if len(req.Optional) > 0 {
		opts.Set("optional", stringArray(req.Optional))
	}
	if len(req.Required) > 0 {
		opts.Set("required", stringArray(req.Required))
	}
	return bser.Array{bser.String("version"), opts}
}

func stringArray(ss []string) bser.Array {
	arr := make(bser.Array, len(ss))
	for i, s := range ss {
		arr[i] = bser.String(s)
	}
	return arr
}

// interpretCapabilityResponse turns a decoded "version" response into a
// CapabilityCheckResponse, synthesizing the capabilities map from the
// version string via capabilityMinVersion when the server's response
// has no "capabilities" field of its own (an old server that predates
// the capability query).
func interpretCapabilityResponse(req CapabilityCheckRequest, resp bser.Value) (*CapabilityCheckResponse, error) {
	obj, ok := resp.(*bser.Object)
	if !ok {
		return nil, fmt.Errorf("watchman: version response is not an object")
	}

	versionVal, ok := obj.Get("version")
	if !ok {
		return nil, fmt.Errorf("watchman: version response missing 'version' field")
	}
	versionStr, ok := versionVal.(bser.String)
	if !ok {
		return nil, fmt.Errorf("watchman: version field is not a string")
	}
	version := string(versionStr)

	caps := make(map[string]bool)
	if capsVal, ok := obj.Get("capabilities"); ok {
		capsObj, ok := capsVal.(*bser.Object)
		if !ok {
			return nil, fmt.Errorf("watchman: capabilities field is not an object")
		}
		for _, k := range capsObj.Keys() {
			v, _ := capsObj.Get(k)
			b, ok := v.(bser.Bool)
			if !ok {
				return nil, fmt.Errorf("watchman: capability %q value is not a boolean", k)
			}
			caps[k] = bool(b)
		}
	} else {
		all := append(append([]string{}, req.Optional...), req.Required...)
		for _, name := range all {
			caps[name] = synthesizeCapability(name, version)
		}
	}

	for _, name := range req.Required {
		if !caps[name] {
			return nil, fmt.Errorf("watchman: required capability %q is not supported by server version %s", name, version)
		}
	}

	return &CapabilityCheckResponse{Version: version, Capabilities: caps}, nil
}

// synthesizeCapability reports whether version is at least the minimum
// version capabilityMinVersion requires for name. Unknown capabilities
// are reported unsupported rather than erroring, matching the
// conservative behavior of a minimum-version table that cannot know
// about capabilities added after it was written.
func synthesizeCapability(name, version string) bool {
	min, ok := capabilityMinVersion[name]
	if !ok {
		return false
	}
	return compareDottedVersion(version, min) >= 0
}

// compareDottedVersion compares the first three dotted numeric
// components of a and b, component-wise, treating missing or
// non-numeric components as 0. It returns <0, 0, or >0 as a compares
// before, equal to, or after b.
func compareDottedVersion(a, b string) int {
	ap := dottedVersionParts(a)
	bp := dottedVersionParts(b)
	for i := 0; i < 3; i++ {
		if ap[i] != bp[i] {
			if ap[i] < bp[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func dottedVersionParts(v string) [3]int {
	var out [3]int
	parts := strings.SplitN(v, ".", 4)
	for i := 0; i < 3 && i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			continue
		}
		out[i] = n
	}
	return out
}
