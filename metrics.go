// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package sevennet

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sevenDatabase/sevennet/neterr"
)

type metrics struct {
	errors *prometheus.CounterVec
	peers  prometheus.GaugeFunc
}

// newMetrics registers the collectors on reg. A collector that is already
// registered is reused; other registration failures only disable export.
func newMetrics(reg prometheus.Registerer, connectedPeers func() float64) *metrics {
	errorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sevennet",
		Name:      "errors_total",
		Help:      "Network errors observed, by kind",
	}, []string{"kind"})
	for _, kind := range neterr.Kinds() {
		errorsTotal.WithLabelValues(kind.String())
	}

	peers := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sevennet",
		Name:      "connected_peers",
		Help:      "Peers with a live connection",
	}, connectedPeers)

	if err := reg.Register(errorsTotal); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				errorsTotal = existing
			}
		} else {
			slog.Warn("could not register error metrics", "error", err)
		}
	}
	if err := reg.Register(peers); err != nil {
		slog.Warn("could not register peer metrics", "error", err)
	}

	return &metrics{errors: errorsTotal, peers: peers}
}

func (m *metrics) observe(err *neterr.Error) {
	m.errors.WithLabelValues(err.Kind().String()).Inc()
}
