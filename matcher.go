// matcher.go: device-to-plugin rule matching
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package gopanels

import (
	"regexp"
)

// Matcher evaluates a plugin's declared device rules against discovered
// devices. It is a pure predicate: no state beyond the compiled rules, no
// I/O, safe for concurrent use.
//
// Matching semantics are an "any rule, any field" union: a device matches
// the plugin when any single rule is satisfied, and a rule declaring both a
// vendor/product pair and a name pattern is satisfied by either condition
// alone. Rules are deliberately not exclusive across plugins; the same
// device may match several plugins at once.
type Matcher struct {
	rules []compiledRule
}

type compiledRule struct {
	vendorID  *DeviceID
	productID *DeviceID
	pattern   *regexp.Regexp
}

// NewMatcher compiles the rule list. Name patterns are compiled once here,
// case-insensitively; an invalid pattern fails compilation so the loader
// can report it as a load error instead of failing at match time.
func NewMatcher(rules []DeviceRule) (*Matcher, error) {
	m := &Matcher{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		cr := compiledRule{vendorID: r.VendorID, productID: r.ProductID}
		if r.NamePattern != "" {
			re, err := regexp.Compile("(?i)" + r.NamePattern)
			if err != nil {
				return nil, NewRulePatternError(r.NamePattern, err)
			}
			cr.pattern = re
		}
		m.rules = append(m.rules, cr)
	}
	return m, nil
}

// Matches reports whether the device satisfies any of the plugin's rules.
//
// The VID/PID sub-check requires both identifiers to be declared and both
// to equal the device's reported values exactly. The pattern sub-check is
// a case-insensitive search anywhere within the device name, not a full
// match. A device with zero vendor/product identifiers simply fails VID/PID
// sub-checks; that is not an error.
func (m *Matcher) Matches(dev DeviceInfo) bool {
	for _, r := range m.rules {
		if r.vendorID != nil && r.productID != nil &&
			uint16(*r.vendorID) == dev.VendorID && uint16(*r.productID) == dev.ProductID {
			return true
		}
		if r.pattern != nil && r.pattern.MatchString(dev.Name) {
			return true
		}
	}
	return false
}
