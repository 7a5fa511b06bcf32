// Package fsm implementa un validador de transiciones genérico sobre un grafo de estados
// inmutable. Cada entidad (adopción, custodia) construye su propia Machine una sola vez.
package fsm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidTransition es el sentinel al que desenvuelve InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid transition")

// InvalidTransitionError describe un intento rechazado e incluye siempre los estados
// permitidos desde From, para que el caller pueda corregirse sin adivinar.
type InvalidTransitionError struct {
	Entity   string
	From     string
	To       string
	Allowed  []string
	Terminal bool
	Reason   string
}

func (e *InvalidTransitionError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(e.Allowed, ", ")
	}
	return fmt.Sprintf("invalid %s transition %s -> %s: %s (allowed: %s)",
		e.Entity, e.From, e.To, e.Reason, allowed)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// Constraint es una regla absoluta que aplica incluso con override de admin.
// To vacío significa "cualquier destino".
type Constraint[S ~string] struct {
	From   S
	To     S
	Reason string
}

func (c Constraint[S]) matches(from, to S) bool {
	if c.From != from {
		return false
	}
	return c.To == "" || c.To == to
}

// Machine es un grafo dirigido de estados. No se modifica después de New.
type Machine[S ~string] struct {
	entity      string
	edges       map[S][]S
	constraints []Constraint[S]
}

// New copia el grafo recibido. Entra en pánico si una arista apunta a un estado que no
// está declarado como clave: los grafos se construyen al iniciar el proceso.
func New[S ~string](entity string, graph map[S][]S, constraints ...Constraint[S]) *Machine[S] {
	edges := make(map[S][]S, len(graph))
	for from, targets := range graph {
		cp := make([]S, len(targets))
		copy(cp, targets)
		edges[from] = cp
	}
	for from, targets := range edges {
		for _, to := range targets {
			if _, ok := edges[to]; !ok {
				panic(fmt.Sprintf("fsm: %s edge %s -> %s targets undeclared state", entity, from, to))
			}
			if to == from {
				panic(fmt.Sprintf("fsm: %s self edge on %s", entity, from))
			}
		}
	}
	cs := make([]Constraint[S], len(constraints))
	copy(cs, constraints)

	return &Machine[S]{entity: entity, edges: edges, constraints: cs}
}

// Entity devuelve el nombre de la entidad (para mensajes y métricas).
func (m *Machine[S]) Entity() string { return m.entity }

// Known indica si s está declarado en el grafo.
func (m *Machine[S]) Known(s S) bool {
	_, ok := m.edges[s]
	return ok
}

// States devuelve todos los estados declarados, ordenados.
func (m *Machine[S]) States() []S {
	out := make([]S, 0, len(m.edges))
	for s := range m.edges {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Allowed devuelve una copia de los destinos legales desde s. Vacío para terminales
// y para estados desconocidos.
func (m *Machine[S]) Allowed(s S) []S {
	targets := m.edges[s]
	out := make([]S, len(targets))
	copy(out, targets)
	return out
}

// Options devuelve los destinos que aceptaría ValidateOverride(from, to, override).
// Sin override coincide con Allowed.
func (m *Machine[S]) Options(from S, override bool) []S {
	if !override {
		return m.Allowed(from)
	}
	out := make([]S, 0)
	for _, to := range m.States() {
		if m.ValidateOverride(from, to, true) == nil {
			out = append(out, to)
		}
	}
	return out
}

// IsTerminal: un estado conocido sin aristas de salida.
func (m *Machine[S]) IsTerminal(s S) bool {
	targets, ok := m.edges[s]
	return ok && len(targets) == 0
}

func (m *Machine[S]) CanTransition(from, to S) bool {
	return m.Validate(from, to) == nil
}

// Validate aplica, en orden: estados conocidos, guardia de auto-transición,
// inmutabilidad de terminales y aristas del grafo.
func (m *Machine[S]) Validate(from, to S) error {
	if err := m.precheck(from, to); err != nil {
		return err
	}
	if m.IsTerminal(from) {
		return m.reject(from, to, true, fmt.Sprintf("%s is a terminal state and cannot be modified", from))
	}
	for _, t := range m.edges[from] {
		if t == to {
			return nil
		}
	}
	return m.reject(from, to, false, "transition is not allowed")
}

// ValidateOverride permite saltar aristas (modo admin). Las restricciones absolutas se
// evalúan después del bypass, nunca se omiten.
func (m *Machine[S]) ValidateOverride(from, to S, override bool) error {
	if !override {
		return m.Validate(from, to)
	}
	if err := m.precheck(from, to); err != nil {
		return err
	}
	for _, c := range m.constraints {
		if c.matches(from, to) {
			return m.reject(from, to, m.IsTerminal(from), c.Reason)
		}
	}
	return nil
}

func (m *Machine[S]) precheck(from, to S) error {
	if !m.Known(from) {
		return m.reject(from, to, false, fmt.Sprintf("unknown current status %q", from))
	}
	if !m.Known(to) {
		return m.reject(from, to, m.IsTerminal(from), fmt.Sprintf("unknown target status %q", to))
	}
	if from == to {
		return m.reject(from, to, m.IsTerminal(from), fmt.Sprintf("status is already %s", from))
	}
	return nil
}

func (m *Machine[S]) reject(from, to S, terminal bool, reason string) error {
	allowed := make([]string, 0, len(m.edges[from]))
	for _, s := range m.edges[from] {
		allowed = append(allowed, string(s))
	}
	return &InvalidTransitionError{
		Entity:   m.entity,
		From:     string(from),
		To:       string(to),
		Allowed:  allowed,
		Terminal: terminal,
		Reason:   reason,
	}
}
