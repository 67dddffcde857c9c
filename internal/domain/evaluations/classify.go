package evaluations

import "strings"

// Classify deriva el resultado final de forma determinista:
// sin riesgo => Normal; con riesgo el grado del soplo decide contra el
// umbral configurado (grado >= umbral => Alto Riesgo).
// Un descriptor sin grado reconocible con riesgo positivo clasifica alto:
// ante la duda, el caso se escala, no se minimiza.
func Classify(d Draft, gradeThreshold int) Resultado {
	if !d.EsRiesgo {
		return ResultadoNormal
	}
	grade, ok := murmurGrade(d.SoploCardiaco)
	if !ok || grade >= gradeThreshold {
		return ResultadoAlto
	}
	return ResultadoModerado
}

var romanGrades = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5, "VI": 6,
}

// murmurGrade extrae el grado de descriptores tipo "Grado II/VI" o "III/VI".
// Toma el primer numeral romano aislado; el denominador de la escala (/VI)
// queda después y no molesta.
func murmurGrade(descriptor string) (int, bool) {
	words := strings.FieldsFunc(strings.ToUpper(descriptor), func(r rune) bool {
		return r < 'A' || r > 'Z'
	})
	for _, w := range words {
		if g, ok := romanGrades[w]; ok {
			return g, true
		}
	}
	return 0, false
}
