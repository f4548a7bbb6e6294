// Package params builds the parameter bindings passed to a template render.
//
// Bindings come from command-line assignments ([Parse]) and parameter files
// ([Load]). Keys containing dots address nested maps, so "site.title=Home"
// and the YAML document
//
//	site:
//	  title: Home
//
// produce the same binding. Values from later sources replace earlier ones
// ([Merge]).
package params
