package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cbodonnell/ducktag/pkg/journal"
	"github.com/cbodonnell/ducktag/pkg/messages"
)

// journal prints a relay journal as JSON lines, one per recorded message.
func main() {
	path := flag.String("file", "relay.journal", "Journal file to read")
	raw := flag.Bool("raw", false, "Print payloads without decoding them")
	flag.Parse()

	r, err := journal.Open(*path)
	if err != nil {
		panic(fmt.Sprintf("Failed to open journal: %v", err))
	}
	defer r.Close()

	enc := json.NewEncoder(os.Stdout)
	err = r.Each(func(record *journal.Record) error {
		line := map[string]interface{}{
			"time": time.UnixMilli(record.Timestamp).UTC().Format(time.RFC3339Nano),
			"conn": record.Conn,
		}
		event, err := messages.DeserializeEvent(record.Payload)
		switch {
		case *raw || err != nil:
			line["payload"] = string(record.Payload)
			if err != nil {
				line["error"] = err.Error()
			}
		default:
			line["type"] = event.Type()
			line["event"] = event
		}
		return enc.Encode(line)
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to read journal: %v", err))
	}
}
