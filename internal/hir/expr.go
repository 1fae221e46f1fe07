/*
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package hir

import (
    `fmt`
    `strings`
)

// Expr is a canonical linear expression over the induction variables of the
// enclosing loop nest:
//
//     Const + Coef[0]*i1 + Coef[1]*i2 + ... (+ t{Blob})
//
// Blob is the symbase of an opaque symbolic term folded into the expression
// (0 when absent). Anything non-linear the front-end folds into a blob temp,
// so this form is closed under everything the dependence tests need.
type Expr struct {
    Const int64
    Blob  int32
    Coef  [MaxLoopNestLevel]int64
}

// ConstExpr returns the constant expression c.
func ConstExpr(c int64) Expr {
    return Expr{Const: c}
}

// IVExpr returns coef*i{level} + c, with level being 1-based.
func IVExpr(coef int64, level int, c int64) Expr {
    if level < 1 || level > MaxLoopNestLevel {
        panic(fmt.Sprintf("hir: invalid loop nest level: %d", level))
    }
    ret := Expr{Const: c}
    ret.Coef[level - 1] = coef
    return ret
}

// BlobExpr returns the expression e + t{symbase}.
func BlobExpr(e Expr, symbase int32) Expr {
    e.Blob = symbase
    return e
}

// IsConst checks whether the expression has no IV terms and no blob term.
func (self Expr) IsConst() bool {
    if self.Blob != 0 {
        return false
    }
    for _, c := range self.Coef {
        if c != 0 {
            return false
        }
    }
    return true
}

// CoefAt returns the IV coefficient at the (1-based) level.
func (self Expr) CoefAt(level int) int64 {
    return self.Coef[level - 1]
}

func (self Expr) String() string {
    var tt []string
    if self.Const != 0 || self.isZero() {
        tt = append(tt, fmt.Sprint(self.Const))
    }
    for i, c := range self.Coef {
        switch c {
            case 0  : // skip
            case 1  : tt = append(tt, fmt.Sprintf("i%d", i + 1))
            default : tt = append(tt, fmt.Sprintf("%d*i%d", c, i + 1))
        }
    }
    if self.Blob != 0 {
        tt = append(tt, fmt.Sprintf("t%d", self.Blob))
    }
    return strings.Join(tt, " + ")
}

func (self Expr) isZero() bool {
    return self.Const == 0 && self.IsConst()
}
