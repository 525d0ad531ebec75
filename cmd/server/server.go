package main

import (
	"log"

	"opsboard/server/cmd/serverrun"
)

func main() {
	if err := serverrun.Run(); err != nil {
		log.Fatal(err)
	}
}
