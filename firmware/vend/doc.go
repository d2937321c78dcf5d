// Package vend drives the vending machine's motor bank through the shared shift-register bus.
//
// The bus is a single 8-line GPIO bank that is time-multiplexed: it clocks drive frames into
// three chained shift registers (U2, U3, U4) and, with its direction turned around, reads the
// motor sense comparators back. Everything here is written against the Pins and Clock
// interfaces so it runs on the RP2040 and against the simulated board in package sim.
package vend
