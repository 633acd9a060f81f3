package sigma

import (
	"fmt"
	"math/big"

	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/transcript"
)

// Term is one coefficient·secret·generator addend of a linear equation.
type Term struct {
	Secret    string
	Coeff     *big.Int
	Generator group.Point
}

// Equation states Σ Term == RHS, a linear relation in the exponent that the
// prover claims to satisfy for some assignment of named secrets.
type Equation struct {
	Terms []Term
	RHS   group.Point
}

// Statement is an ordered list of linear equations sharing secrets by name:
// a secret used in two equations gets one nonce and one response, which is
// what binds the equations together (e.g. the same chunk plaintext used in
// both a recipient ciphertext equation and the sender-debit equation).
type Statement struct {
	Equations []Equation
}

// Proof is a linear-relation Sigma proof: one commitment point per
// equation, one response scalar per named secret, and the shared
// challenge recomputed (not stored) on verification.
type Proof struct {
	Commitments []group.Point
	Responses   map[string]*big.Int
}

// secretNames collects every distinct secret name referenced by a Statement,
// in first-seen order (for deterministic transcript absorption).
func (s Statement) secretNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, eq := range s.Equations {
		for _, t := range eq.Terms {
			if !seen[t.Secret] {
				seen[t.Secret] = true
				names = append(names, t.Secret)
			}
		}
	}
	return names
}

// Prove builds a Sigma proof of knowledge of witness (a value per secret
// name) satisfying every equation in the statement, absorbing the
// statement's public structure into t before drawing the challenge. t
// should already have the operation's domain tag and public inputs
// absorbed; Prove absorbs the statement's commitments and RHS points on
// top.
func Prove(t *transcript.Transcript, stmt Statement, witness map[string]*big.Int) (Proof, error) {
	names := stmt.secretNames()
	nonces := make(map[string]*big.Int, len(names))
	for _, name := range names {
		k, err := group.RandomScalar()
		if err != nil {
			return Proof{}, fmt.Errorf("sigma: prove: %w", err)
		}
		nonces[name] = k
	}

	commitments := make([]group.Point, len(stmt.Equations))
	for i, eq := range stmt.Equations {
		commitments[i] = evalTerms(eq.Terms, nonces)
		t.AbsorbPoint(commitments[i])
		t.AbsorbPoint(eq.RHS)
	}

	c, err := t.Challenge()
	if err != nil {
		return Proof{}, fmt.Errorf("sigma: prove: challenge: %w", err)
	}

	responses := make(map[string]*big.Int, len(names))
	for _, name := range names {
		w, ok := witness[name]
		if !ok {
			return Proof{}, fmt.Errorf("sigma: prove: missing witness for secret %q", name)
		}
		responses[name] = group.AddScalars(nonces[name], group.MulScalars(c, w))
	}
	return Proof{Commitments: commitments, Responses: responses}, nil
}

// Verify recomputes the challenge from t (which must have had the same
// public inputs absorbed as Prove did) and checks every equation.
func Verify(t *transcript.Transcript, stmt Statement, proof Proof) error {
	if len(proof.Commitments) != len(stmt.Equations) {
		return fmt.Errorf("sigma: verify: commitment count mismatch")
	}
	for i, eq := range stmt.Equations {
		t.AbsorbPoint(proof.Commitments[i])
		t.AbsorbPoint(eq.RHS)
	}
	c, err := t.Challenge()
	if err != nil {
		return fmt.Errorf("sigma: verify: challenge: %w", err)
	}

	for i, eq := range stmt.Equations {
		lhs := evalTerms(eq.Terms, proof.Responses)
		rhs := proof.Commitments[i].Add(eq.RHS.ScalarMult(c))
		if !lhs.Equal(rhs) {
			return fmt.Errorf("sigma: verify: equation %d failed", i)
		}
	}
	return nil
}

// evalTerms computes Σ coeff·scalars[secret]·generator over a term list,
// used both to build a commitment (scalars = nonces) and to evaluate the
// verification LHS (scalars = responses).
func evalTerms(terms []Term, scalars map[string]*big.Int) group.Point {
	acc := group.Identity()
	for _, term := range terms {
		s, ok := scalars[term.Secret]
		if !ok {
			panic(fmt.Sprintf("sigma: unknown secret %q in term evaluation", term.Secret))
		}
		combined := group.MulScalars(term.Coeff, s)
		acc = acc.Add(term.Generator.ScalarMult(combined))
	}
	return acc
}
