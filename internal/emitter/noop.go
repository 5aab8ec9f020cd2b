package emitter

// Noop is the publisher used when no MQTT broker is configured.
type Noop struct{}

func (Noop) PublishStatus(StatusEvent) {}
func (Noop) PublishAlert(AlertEvent)   {}
func (Noop) Close()                    {}
