package debug

import (
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
)

// StartUtilities spins off the services associated with debug mode.
func StartUtilities(logger *logrus.Logger, pprofPort int) {
	go startPprofServer(logger, pprofPort)
}

func startPprofServer(logger *logrus.Logger, port int) {
	logger.Infof("starting pprof server on localhost:%d", port)
	if err := http.ListenAndServe(fmt.Sprintf("localhost:%d", port), nil); err != nil {
		logger.Warnf("error starting pprof server: %v", err)
	}
}

// DumpParams describes one protocol message to be written by DumpMessage.
type DumpParams struct {
	// Source is set for messages received from a client.
	Source string
	// Destination is set for messages sent to a client.
	Destination string
	// Message is either the raw message bytes or the decoded message struct.
	Message interface{}
}

var dumpConfig = spew.ConfigState{Indent: "  ", DisableCapacities: true}

// DumpMessage writes a full dump of one sent or received message to w. Only
// intended for debugging; the output format is not stable.
func DumpMessage(w io.Writer, params DumpParams) {
	direction := "client->server"
	peer := params.Source
	if params.Destination != "" {
		direction = "server->client"
		peer = params.Destination
	}

	fmt.Fprintf(w, "[%s %s]\n", direction, peer)
	if raw, ok := params.Message.([]byte); ok {
		fmt.Fprintf(w, "%s\n", raw)
		return
	}
	dumpConfig.Fdump(w, params.Message)
}
