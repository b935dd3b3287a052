// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package haproxy

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"text/template"
	"time"
)

// UpstreamPort is the API server port of every workload cluster.
const UpstreamPort = 6443

// Backend is one proxied cluster as seen by HAProxy. Name is the service
// DNS name of the cluster and doubles as the SNI host clients present.
type Backend struct {
	Name      string
	Server    string
	Address   string
	Namespace string
}

type Params struct {
	PIDFile     string
	AdminSocket string
	Bind        string
	Port        int

	MaxConn        int
	TimeoutConnect time.Duration
	TimeoutClient  time.Duration
	TimeoutServer  time.Duration

	Backends []Backend
}

var configTemplate = template.Must(template.New("haproxy.cfg").
	Option("missingkey=error").
	Funcs(template.FuncMap{
		"ms":       milliseconds,
		"upstream": func() int { return UpstreamPort },
	}).
	Parse(`global
    master-worker
    pidfile {{ .PIDFile }}
    maxconn {{ .MaxConn }}
    stats socket {{ .AdminSocket }} mode 600 level admin expose-fd listeners

defaults
    mode tcp
    timeout connect {{ ms .TimeoutConnect }}
    timeout client {{ ms .TimeoutClient }}
    timeout server {{ ms .TimeoutServer }}

frontend magnum-cluster-api
    bind {{ .Bind }}:{{ .Port }}
    tcp-request inspect-delay 5s
    tcp-request content accept if { req_ssl_hello_type 1 }
{{- range .Backends }}
    use_backend {{ .Name }} if { req_ssl_sni -i {{ .Name }} }
{{- end }}
{{ range .Backends }}
backend {{ .Name }}
    server {{ .Server }} {{ .Address }}:{{ upstream }}{{ with .Namespace }} namespace {{ . }}{{ end }} check
{{ end -}}
`))

func milliseconds(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}

// Render produces the HAProxy configuration. Backends are ordered by name
// so the same set always renders to the same bytes.
func Render(p Params) ([]byte, error) {
	if p.Port <= 0 {
		return nil, fmt.Errorf("invalid frontend port %d", p.Port)
	}
	if p.Bind == "" {
		p.Bind = "*"
	}

	backends := make([]Backend, len(p.Backends))
	copy(backends, p.Backends)
	sort.Slice(backends, func(i, j int) bool { return backends[i].Name < backends[j].Name })
	for _, b := range backends {
		if b.Name == "" || b.Address == "" {
			return nil, fmt.Errorf("backend %q has no name or address", b.Name)
		}
	}
	p.Backends = backends

	buf := new(bytes.Buffer)
	if err := configTemplate.Execute(buf, p); err != nil {
		return nil, fmt.Errorf("failed to render haproxy config: %w", err)
	}
	return buf.Bytes(), nil
}
