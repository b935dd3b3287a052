// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/vexxhost/magnum-cluster-api-sub000/cmd/haproxy-helper/cmd"

func main() {
	cmd.Execute()
}
