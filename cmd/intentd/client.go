package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flemzord/intentd/internal/protocol"
)

const defaultServer = "http://127.0.0.1:8137"

// rpcClient is the thin HTTP client behind the call and tools subcommands.
type rpcClient struct {
	server string
	http   *http.Client
}

func newRPCClient(server string) *rpcClient {
	if server == "" {
		server = defaultServer
	}
	return &rpcClient{
		server: server,
		http:   &http.Client{Timeout: 120 * time.Second},
	}
}

// do sends one request envelope to the daemon's /rpc endpoint.
func (c *rpcClient) do(method string, params map[string]any) (protocol.Response, error) {
	payload, err := json.Marshal(protocol.Request{
		Version: protocol.Version,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return protocol.Response{}, err
	}

	httpResp, err := c.http.Post(c.server+"/rpc", "application/json", bytes.NewReader(payload))
	if err != nil {
		return protocol.Response{}, fmt.Errorf("cannot reach daemon at %s: %w", c.server, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return protocol.Response{}, err
	}

	var resp protocol.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return protocol.Response{}, fmt.Errorf("malformed response from daemon: %w", err)
	}
	return resp, nil
}

// resultMap re-decodes a response result into a map for field access.
func resultMap(result any) map[string]any {
	m, ok := result.(map[string]any)
	if ok {
		return m
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
