package main

import (
	"log"

	dig_container "github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/api/di/dig"
)

func main() {
	if err := dig_container.New().Invoke(run); err != nil {
		log.Fatal(err)
	}
}
