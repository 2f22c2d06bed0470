package fluid

// Step advances the simulation by one tick. Invalid parameters are reported
// before any field is touched; otherwise all nine stages always run.
func (g *Grid) Step(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	dt := p.Dt

	g.addBuoyancy(p.Buoyancy, dt)

	g.diffuse(VelocityX, g.uPrev, g.u, p.Viscosity, dt)
	g.diffuse(VelocityY, g.vPrev, g.v, p.Viscosity, dt)
	g.project(g.uPrev, g.vPrev)

	g.advect(VelocityX, g.u, g.uPrev, g.uPrev, g.vPrev, dt)
	g.advect(VelocityY, g.v, g.vPrev, g.uPrev, g.vPrev, dt)
	g.project(g.u, g.v)

	g.diffuse(Scalar, g.tempPrev, g.temp, p.Diffusion, dt)
	g.advect(Scalar, g.temp, g.tempPrev, g.u, g.v, dt)
	decay(g.temp, p.TemperatureDecay*dt)

	g.diffuse(Scalar, g.densPrev, g.dens, p.Diffusion, dt)
	g.advect(Scalar, g.dens, g.densPrev, g.u, g.v, dt)
	// smoke fades at half the rate heat does
	decay(g.dens, p.TemperatureDecay*0.5*dt)

	return nil
}

// addBuoyancy pushes hot cells towards negative v; dense smoke pulls back.
func (g *Grid) addBuoyancy(buoyancy, dt float32) {
	n, size := g.n, g.size
	for j := 1; j <= n; j++ {
		row := j * size
		for i := 1; i <= n; i++ {
			idx := row + i
			f := buoyancy*g.temp[idx] - 0.1*g.dens[idx]
			g.v[idx] -= f * dt
		}
	}
}

// decay shrinks every cell by rate*value and floors the result at zero.
func decay(x []float32, rate float32) {
	for k, val := range x {
		val -= rate * val
		if !(val > 0) {
			val = 0
		}
		x[k] = val
	}
}
