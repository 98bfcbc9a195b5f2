package host

// AllTools returns the tool definitions the host server exposes.
func AllTools() []Tool {
	return []Tool{
		{
			Name:        "dialogic_compile",
			Description: "Compile one or more dialogue source files into a bytecode program. Runs parsing, declaration collection, string extraction, and type checking. Returns diagnostics and, on success, a session_id for starting a VM.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"files": map[string]any{
						"type":        "array",
						"description": "Source files to compile together as one project.",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"path": map[string]any{"type": "string"},
								"text": map[string]any{"type": "string"},
							},
							"required": []string{"path", "text"},
						},
					},
				},
				"required": []string{"files"},
			},
		},
		{
			Name:        "dialogic_start",
			Description: "Construct a VM over a compiled session's program and begin execution at the given node (or the project's default start node), returning the first batch of dialogue events.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"session_id": map[string]any{"type": "string"},
					"start_node": map[string]any{"type": "string", "description": "Node to begin at. Defaults to \"Start\"."},
					"locale":     map[string]any{"type": "string", "description": "BCP-47 locale for markup resolution, e.g. \"en-US\"."},
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "dialogic_continue",
			Description: "Resume a running VM until its next suspend point (a line, unhandled command, options, or completion), returning every event produced.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"vm_id": map[string]any{"type": "string"},
				},
				"required": []string{"vm_id"},
			},
		},
		{
			Name:        "dialogic_select_option",
			Description: "Resolve a suspended options event by choosing one of the enabled options by index, then resume the VM.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"vm_id": map[string]any{"type": "string"},
					"index": map[string]any{"type": "integer"},
				},
				"required": []string{"vm_id", "index"},
			},
		},
		{
			Name:        "dialogic_state",
			Description: "Return a VM's current execution state and node, without advancing it.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"vm_id": map[string]any{"type": "string"},
				},
				"required": []string{"vm_id"},
			},
		},
		{
			Name:        "dialogic_stop",
			Description: "Halt a VM unconditionally. The next continue call (if any) will only return a dialogue-complete event.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"vm_id": map[string]any{"type": "string"},
				},
				"required": []string{"vm_id"},
			},
		},
		{
			Name:        "dialogic_node_exists",
			Description: "Report whether a node name is present in a running VM's loaded program.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"vm_id": map[string]any{"type": "string"},
					"node":  map[string]any{"type": "string"},
				},
				"required": []string{"vm_id", "node"},
			},
		},
		{
			Name:        "dialogic_current_node",
			Description: "Return the name of the node a running VM is positioned at.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"vm_id": map[string]any{"type": "string"},
				},
				"required": []string{"vm_id"},
			},
		},
		{
			Name:        "dialogic_get_tags_for_node",
			Description: "Return the tags header contents for a node in a running VM's loaded program.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"vm_id": map[string]any{"type": "string"},
					"node":  map[string]any{"type": "string"},
				},
				"required": []string{"vm_id", "node"},
			},
		},
		{
			Name:        "dialogic_get_string_id_for_node",
			Description: "Return the string table ID of a node's raw source text, if its tags header carries \"rawText\".",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"vm_id": map[string]any{"type": "string"},
					"node":  map[string]any{"type": "string"},
				},
				"required": []string{"vm_id", "node"},
			},
		},
		{
			Name:        "dialogic_unload_all",
			Description: "Unload every node from a running VM, leaving it Stopped with an empty program. Visit counts and variables are kept.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"vm_id": map[string]any{"type": "string"},
				},
				"required": []string{"vm_id"},
			},
		},
		{
			Name:        "dialogic_strings",
			Description: "Return the extracted string table for a compiled session: every line ID and its source text, for localization export.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"session_id": map[string]any{"type": "string"},
				},
				"required": []string{"session_id"},
			},
		},
	}
}
