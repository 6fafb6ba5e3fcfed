package main

import (
	"flag"
	"log"
	"os"

	"github.com/robotalks/envdash/pkg/cli/sh"
	"github.com/robotalks/envdash/pkg/comm/mqtt"
	"github.com/robotalks/envdash/pkg/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/envdash/"
)

func init() {
	if val := os.Getenv("ENVDASH_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if _, ch, ok := mqtt.SplitDeviceTopic(topic); ok && ch == mqtt.ChannelMeta {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		typed, err := msgs.DecodeTyped(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := typed.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
			return
		}
		log.Printf("%s: %s", topic, sh.FormatMessage(msg))
	}))
	<-(chan struct{})(nil)
}
