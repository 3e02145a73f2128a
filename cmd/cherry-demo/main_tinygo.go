//go:build tinygo

package main

import (
	"time"

	"cherry/debug"
	"cherry/pac"
)

func main() {
	debug.SetWriter(func(s string) { println(s) })

	p, ok := pac.Take()
	if !ok {
		panic("peripherals already taken")
	}
	b, err := newBoard(p.GPIOA, p.UART1, p.TIMER1, 250*time.Millisecond)
	if err != nil {
		panic(err.Error())
	}
	b.say("cherry demo\r\n")
	if err := b.run(0); err != nil {
		debug.Dump()
		panic(err.Error())
	}
}
