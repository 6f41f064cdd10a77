// Package dyn provides the core simulation primitives shared by the
// multibody packages:
//
//   - [State]: flat state vector (per body: quaternion, position,
//     body-frame angular velocity, linear velocity)
//   - [System]: interface for first-order dynamics dX/dt = f(X, t)
//   - [Integrator]: numerical stepping interface
//   - [Metric]: per-step observation interface
//   - [Config] and [Result]: run configuration and output
//
// The multibody equations of motion are index-3 DAEs; the packages built
// on dyn reduce them to an ODE per step by solving the constrained
// acceleration problem, so integrators here only ever see f(X, t).
//
// # Thread Safety
//
// Systems and integrators are NOT thread-safe; each simulation run owns
// its state exclusively.
package dyn
