package messagebrokerdto

import "fmt"

const (
	// Exchange is the topic exchange carrying both telemetry and commands.
	Exchange       = "ride_sim_topic"
	CommandQueue   = "ride_sim_commands"
	CommandBinding = "sim.command.*"
)

// EventRoutingKey is the routing key telemetry of the given kind is published with.
func EventRoutingKey(kind EventKind) string {
	return fmt.Sprintf("sim.event.%s", kind)
}
