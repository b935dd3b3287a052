// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package hostnet

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/vishvananda/netlink"
)

// mainRouteTable is RT_TABLE_MAIN.
const mainRouteTable = 254

type NetLink struct {
	RouteListFiltered func(family int, filter *netlink.Route, filterMask uint64) ([]netlink.Route, error)
	LinkByIndex       func(index int) (netlink.Link, error)
	AddrList          func(link netlink.Link, family int) ([]netlink.Addr, error)
}

// DefaultNetLink talks to the host netlink socket.
func DefaultNetLink() NetLink {
	return NetLink{
		RouteListFiltered: netlink.RouteListFiltered,
		LinkByIndex:       netlink.LinkByIndex,
		AddrList:          netlink.AddrList,
	}
}

// Interface is the link carrying the default route.
type Interface struct {
	Name  string
	IP    net.IP
	Index int
}

// DefaultIPv4 returns the default gateway interface and its first global
// unicast IPv4 address, which is the address advertised to the management
// cluster unless overridden.
func DefaultIPv4(cli NetLink) (*Interface, error) {
	routes, err := cli.RouteListFiltered(netlink.FAMILY_V4, &netlink.Route{Table: mainRouteTable}, netlink.RT_FILTER_TABLE)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %v", err)
	}

	index := -1
	for _, route := range routes {
		if !isDefault(route) {
			continue
		}
		index = route.LinkIndex
		break
	}
	if index == -1 {
		return nil, errors.New("not found default route link")
	}

	link, err := cli.LinkByIndex(index)
	if err != nil {
		return nil, fmt.Errorf("failed to get default route link by index: %v, %v", index, err)
	}
	addrs, err := cli.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("failed to list default route link addrs: %v", err)
	}
	for _, addr := range addrs {
		if addr.IPNet == nil || !addr.IP.IsGlobalUnicast() {
			continue
		}
		ones, bits := addr.Mask.Size()
		if ones == 32 && bits == 32 {
			continue
		}
		return &Interface{Name: link.Attrs().Name, IP: addr.IP, Index: link.Attrs().Index}, nil
	}
	return nil, fmt.Errorf("no usable IPv4 address on default route link %s", link.Attrs().Name)
}

func isDefault(route netlink.Route) bool {
	if route.Dst == nil {
		return true
	}
	ones, _ := route.Dst.Mask.Size()
	return ones == 0 && route.Dst.IP.Equal(net.IPv4zero)
}

// AdvertiseIP returns the override when set, the default interface address otherwise.
func AdvertiseIP(override string, cli NetLink) (string, error) {
	if override != "" {
		ip := net.ParseIP(override)
		if ip == nil || ip.To4() == nil {
			return "", fmt.Errorf("invalid IPv4 address %q", override)
		}
		return ip.String(), nil
	}
	iface, err := DefaultIPv4(cli)
	if err != nil {
		return "", err
	}
	return iface.IP.String(), nil
}

// FindFreePort returns hint when it can be bound, otherwise a port picked by the kernel.
func FindFreePort(hint int) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(hint)))
	if err != nil {
		l, err = net.Listen("tcp", ":0")
		if err != nil {
			return 0, fmt.Errorf("failed to find a free port: %w", err)
		}
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
