package rpc

import (
	"context"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
)

// Registrar registers the bridge services on a gRPC server.
type Registrar interface {
	Register(server grpc.ServiceRegistrar)
}

// GRPCPlugin exposes the host bridge through go-plugin. The client side
// dispenses the raw connection so every capability client shares it.
type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl Registrar
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	p.Impl.Register(server)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return conn, nil
}

func PluginMap(impl Registrar) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
