// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusOptionRoundTrip(t *testing.T) {
	orig := NewStatusOption(StatusNoAddrsAvail, "no addresses on this link")
	parsed, err := parseOptStatusCode(orig.ToBytes())
	require.NoError(t, err)
	back := parsed.(*OptStatusCode)
	require.Equal(t, StatusNoAddrsAvail, back.Status)
	require.Equal(t, "no addresses on this link", back.Message)
}

func TestBulkLeasequeryStatusCodesStringify(t *testing.T) {
	cases := map[StatusCode]string{
		StatusMalformedQuery:  "MalformedQuery",
		StatusNotConfigured:   "NotConfigured",
		StatusNotAllowed:      "NotAllowed",
		StatusQueryTerminated: "QueryTerminated",
	}
	for code, want := range cases {
		require.Equal(t, want, code.String())
	}
}

func TestStatusCodeRejectsShortPayload(t *testing.T) {
	_, err := parseOptStatusCode([]byte{0})
	require.Error(t, err)
}
