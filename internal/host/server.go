package host

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
)

const (
	protocolVersion = "2025-03-26"
	serverName      = "dialogic-host"
	serverVersion   = "0.1.0"
)

// Server is a host server that exposes the compiler and VM as tools over
// JSON-RPC.
type Server struct {
	transport *Transport
	registry  *registry
	logger    *log.Logger
}

// NewServer creates a new Server reading/writing through transport.
func NewServer(transport *Transport) *Server {
	return &Server{
		transport: transport,
		registry:  newRegistry(),
		logger:    log.New(os.Stderr, "[dialogic-host] ", log.LstdFlags),
	}
}

// Run starts the main dispatch loop: read a request, dispatch it, write
// the response, repeat until EOF.
func (s *Server) Run() error {
	for {
		req, err := s.transport.ReadRequest()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			s.logger.Printf("read error: %v", err)
			return err
		}

		resp := s.dispatch(req)
		if resp != nil {
			if err := s.transport.WriteResponse(resp); err != nil {
				s.logger.Printf("write error: %v", err)
				return err
			}
		}
	}
}

func (s *Server) dispatch(req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{}}
	default:
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: ErrCodeMethodNot, Message: fmt.Sprintf("unknown method: %s", req.Method)},
		}
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
			ServerInfo:      ServerInfo{Name: serverName, Version: serverVersion},
		},
	}
}

func (s *Server) handleToolsList(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  ToolsListResult{Tools: AllTools()},
	}
}

func (s *Server) handleToolsCall(req *Request) *Response {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: ErrCodeInvalidReq, Message: "invalid tools/call params: " + err.Error()},
		}
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  s.callToolSafe(params.Name, params.Arguments),
	}
}

// callToolSafe dispatches to a tool handler with panic recovery, so a
// malformed request can never take down the host process.
func (s *Server) callToolSafe(name string, args json.RawMessage) (result *CallToolResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("panic in tool %s: %v", name, r)
			result = toolError(fmt.Sprintf("internal error in %s: %v", name, r))
		}
	}()

	switch name {
	case "dialogic_compile":
		return s.handleCompile(args)
	case "dialogic_start":
		return s.handleStart(args)
	case "dialogic_continue":
		return s.handleContinue(args)
	case "dialogic_select_option":
		return s.handleSelectOption(args)
	case "dialogic_state":
		return s.handleVMState(args)
	case "dialogic_stop":
		return s.handleStop(args)
	case "dialogic_node_exists":
		return s.handleNodeExists(args)
	case "dialogic_current_node":
		return s.handleCurrentNode(args)
	case "dialogic_get_tags_for_node":
		return s.handleGetTagsForNode(args)
	case "dialogic_get_string_id_for_node":
		return s.handleGetStringIDForNode(args)
	case "dialogic_unload_all":
		return s.handleUnloadAll(args)
	case "dialogic_strings":
		return s.handleStrings(args)
	default:
		return toolError(fmt.Sprintf("unknown tool: %s", name))
	}
}
