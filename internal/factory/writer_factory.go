package factory

import (
	"CANSpectra/internal/config"
	"CANSpectra/internal/model"
	"fmt"
	"log"
)

// Sink pairs a writer with the queueing settings of its definition.
type Sink struct {
	Writer       model.Writer
	BufferSize   int
	DropWhenFull bool
}

// WriterFactory defines a function that creates a writer from its definition.
type WriterFactory func(def config.WriterDef) (model.Writer, error)

// registry holds the mapping of writer types to their factory functions.
var registry = make(map[string]WriterFactory)

// RegisterWriter registers a new writer type with its factory function.
func RegisterWriter(name string, factory WriterFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("writer type '%s' already registered", name))
	}
	registry[name] = factory
}

// Registered reports whether a writer type is known.
func Registered(name string) bool {
	_, ok := registry[name]
	return ok
}

// Create builds every enabled writer in the config. If one fails, the writers
// created so far are closed.
func Create(cfg *config.Config) ([]Sink, error) {
	var sinks []Sink

	for _, def := range cfg.Writers {
		if !def.Enabled {
			continue
		}
		log.Printf("Creating writer of type: '%s'\n", def.Type)

		factory, ok := registry[def.Type]
		if !ok {
			closeAll(sinks)
			return nil, fmt.Errorf("unknown writer type: '%s'", def.Type)
		}

		writer, err := factory(def)
		if err != nil {
			closeAll(sinks)
			return nil, fmt.Errorf("error creating writer type '%s': %w", def.Type, err)
		}

		sinks = append(sinks, Sink{Writer: writer, BufferSize: def.BufferSize, DropWhenFull: def.DropWhenFull})
	}

	return sinks, nil
}

func closeAll(sinks []Sink) {
	for _, s := range sinks {
		if err := s.Writer.Close(); err != nil {
			log.Printf("Error closing writer %s: %v", s.Writer.Name(), err)
		}
	}
}
