package coretool

// All returns every core tool in registration order (spec.md §4.5: core
// tools are appended to listTools output "in their registration order").
// Callers filter by IsEnabled(cfg) before registering with the host
// transport.
func All() []Tool {
	return []Tool{
		DiscoverToolsByWords{},
		GetToolSchema{},
		BridgeToolRequest{},
		LoadToolset{},
		UnloadToolset{},
	}
}
