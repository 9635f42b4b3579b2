package main

import (
	"flag"
	"log"

	dig_container "github.com/trezcool/placement/apps/api/di/dig"
)

func main() {
	graph := flag.Bool("graph", false, "print the dependency graph (DOT) and exit")
	flag.Parse()

	if *graph {
		must(dig_container.Visualize(dig_container.New()))
		return
	}
	startWithDig()
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
