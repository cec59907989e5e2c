// Package upgrade decides whether a local release improves on what a
// catalog already holds.
//
// Below 2160p the decision walks the quality and resolution hierarchy and
// the local file must beat every existing entry. At 2160p the decision is
// driven only by HDR format: web releases compete inside three slots (SDR,
// DV, HDR) while encodes and remuxes must strictly outrank every existing
// entry of their source category.
package upgrade
