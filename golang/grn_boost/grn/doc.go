//Package grn infers gene regulatory networks from expression data.
//
//Every gene is regressed on the candidate regulators with gradient-boosted
//trees. Split counts (or another importance type) of the trained models form
//a regulator x target matrix that is normalized row by row and scaled by the
//variance of each row:
//
//	vv  = transpose(XGBoostWeight(data))
//	vim = NormalizedL2Norm(vv)
//	vim = vim .* StatisticalMethod(vim)
package grn
