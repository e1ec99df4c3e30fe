package dhcp4

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	packetsDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dhcptool",
		Subsystem: "dhcp4",
		Name:      "packets_decoded_total",
		Help:      "Number of packets decoded, by message type.",
	}, []string{"message_type"})

	decodeAnomalies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dhcptool",
		Subsystem: "dhcp4",
		Name:      "decode_anomalies_total",
		Help:      "Number of anomalies tolerated during decoding.",
	}, []string{"reason"})

	packetsEncoded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dhcptool",
		Subsystem: "dhcp4",
		Name:      "packets_encoded_total",
		Help:      "Number of packets successfully encoded.",
	})

	encodeRefusals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dhcptool",
		Subsystem: "dhcp4",
		Name:      "encode_refusals_total",
		Help:      "Number of encode attempts refused because the packet was invalid.",
	})
)
