// Package actuation turns DMX frames into actuator commands.
//
// The Engine reads the subdevice list for every frame, decodes the slots each
// enabled subdevice listens to and records one probe event per subdevice:
//
//	slots[addr], slots[addr+1]  ──▶  DC motor   value/direction
//	slots[addr], slots[addr+1]  ──▶  stepper    target angle
//	slots[addr]                 ──▶  relay/LED  on/off
//	slots[addr..addr+2]         ──▶  pixels     rgb
//
// Missing slots read as zero. Frames are validated once, by ParseSlots, at
// the edge of the system; the engine itself never fails.
//
// RunTest synthesises a single diagnostic event for one subdevice without a
// frame.
package actuation
