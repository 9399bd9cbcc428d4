// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kan provides Kolmogorov-Arnold Networks: graphs whose edges carry
// learnable univariate functions instead of scalar weights.
//
// # Overview
//
// Every edge evaluates a B-spline plus a fixed SiLU residual on an input in
// [0, 1]. A node sums its incoming edges, a layer evaluates its nodes, and a
// network chains layers into a single scalar prediction trained with
// hand-derived gradients and plain gradient descent.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/kan/kan"
//	    "github.com/born-ml/kan/internal/linalg"
//	)
//
//	func main() {
//	    net := kan.Standard(1, 4)
//	    x := linalg.NewVector(0.3)
//	    for i := 0; i < 500; i++ {
//	        if _, err := net.Train(x, 0.09, 0.05); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	    y, _ := net.Predict(x)
//	}
//
// # Domain
//
// Splines are defined on [0, 1] only. Inputs, and hidden values between
// layers, outside that range fail with an error satisfying
// errors.Is(err, kan.ErrDomain).
//
// # Checkpoints
//
// Save and Load store networks in the .kan format, a JSON topology header
// followed by float64 spline data protected by a SHA-256 checksum.
package kan
