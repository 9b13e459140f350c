/*
Package resilience provides the circuit breaker shared by the outbound HTTP
client and the submission loop.

# Overview

A Breaker counts consecutive failures. When the count reaches the configured
threshold it opens and rejects work with ErrCircuitOpen. If a cooldown is
configured the breaker moves to half-open after it elapses and lets a limited
number of probes through; a successful probe closes it again. With no cooldown
an open breaker stays open, which is what a bulk run wants: stop after N
failures in a row.

# Usage

	breaker := resilience.New(resilience.Settings{
		Name:      "submit",
		Threshold: 5,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Info("breaker", zap.String("name", name), zap.Stringer("to", to))
		},
	})

	err := breaker.Do(ctx, func(ctx context.Context) error {
		return sink.Submit(ctx, payload)
	})

# States

	Closed --[threshold failures]-> Open --[cooldown]-> Half-Open --[probe ok]-> Closed
	                                  ^                     |
	                                  +-----[probe fails]---+
*/
package resilience
