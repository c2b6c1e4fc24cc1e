// Copyright 2018-present the CoreDHCP Authors. All rights reserved
// This source code is licensed under the MIT license found in the
// LICENSE file in the root directory of this source tree.

package dhcpv6

import "fmt"

func init() {
	RegisterOption(OptionClientID, parseOptClientID)
	RegisterOption(OptionServerID, parseOptServerID)
}

// OptClientID carries the client's DUID (RFC 3315 §22.2).
type OptClientID struct {
	DUID DUID
}

func parseOptClientID(data []byte) (Option, error) {
	d, err := ParseDUID(data)
	if err != nil {
		return nil, fmt.Errorf("client-id: %w", err)
	}
	return &OptClientID{DUID: d}, nil
}

func (o *OptClientID) Code() OptionCode { return OptionClientID }
func (o *OptClientID) ToBytes() []byte  { return o.DUID.ToBytes() }
func (o *OptClientID) String() string   { return fmt.Sprintf("ClientID(%s)", o.DUID) }

// OptServerID carries the server's DUID (RFC 3315 §22.3).
type OptServerID struct {
	DUID DUID
}

func parseOptServerID(data []byte) (Option, error) {
	d, err := ParseDUID(data)
	if err != nil {
		return nil, fmt.Errorf("server-id: %w", err)
	}
	return &OptServerID{DUID: d}, nil
}

func (o *OptServerID) Code() OptionCode { return OptionServerID }
func (o *OptServerID) ToBytes() []byte  { return o.DUID.ToBytes() }
func (o *OptServerID) String() string   { return fmt.Sprintf("ServerID(%s)", o.DUID) }
